package memory

import (
	"context"
	"sort"
	"sync"
)

// KeyedLocker serializes writes per item id within one process
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates a keyed locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock acquires every id in sorted order and returns the release func
func (l *KeyedLocker) Lock(ctx context.Context, itemIDs ...string) (func(), error) {
	ids := sortedUnique(itemIDs)
	held := make([]string, 0, len(ids))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}

	for _, id := range ids {
		if err := l.acquire(ctx, id); err != nil {
			release()
			return nil, err
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *KeyedLocker) acquire(ctx context.Context, id string) error {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.drop(id, lock)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *KeyedLocker) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[id]
	if !ok {
		return
	}
	<-lock.ch
	l.drop(id, lock)
}

// drop decrements the waiter count; caller holds l.mu
func (l *KeyedLocker) drop(id string, lock *keyedLock) {
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
