package memory

import (
	"context"
	"sync"

	"carddeps/application/ports"
)

// RelationStore is an in-process relation store used for local runs and tests
type RelationStore struct {
	mu    sync.RWMutex
	slots map[ports.SlotKey][]string
}

// NewRelationStore creates an empty store
func NewRelationStore() *RelationStore {
	return &RelationStore{slots: make(map[ports.SlotKey][]string)}
}

// Get returns a copy of the stored values
func (s *RelationStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := key.Validate(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.slots[normalize(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, true, nil
}

// Put replaces the stored values
func (s *RelationStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}

	stored := make([]string, len(values))
	copy(stored, values)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[normalize(key)] = stored
	return nil
}

// Len returns the number of stored slots
func (s *RelationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Ping always succeeds
func (s *RelationStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// normalize drops the viewer from shared keys so they address one slot
func normalize(key ports.SlotKey) ports.SlotKey {
	if key.Scope == ports.ScopeShared {
		key.Viewer = ""
	}
	return key
}
