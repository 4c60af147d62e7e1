package services

import (
	"context"
	"sync"
	"time"

	"carddeps/domain/core/valueobjects"
	apperrors "carddeps/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSessionTTL is used when the manager is created without a TTL
const DefaultSessionTTL = 30 * time.Minute

// SessionManager keeps the staging sessions opened over HTTP.
// Idle sessions expire and are abandoned, which never writes anything.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	editor   DependencyEditor
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type managedSession struct {
	session   *StagingSession
	expiresAt time.Time
}

// NewSessionManager creates a manager and starts its sweeper
func NewSessionManager(editor DependencyEditor, ttl time.Duration, logger *zap.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SessionManager{
		sessions: make(map[string]*managedSession),
		editor:   editor,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go m.sweep(sweepInterval(ttl))

	return m
}

// Open starts a session for itemID and returns its id
func (m *SessionManager) Open(ctx context.Context, itemID valueobjects.ItemID) (string, *StagingSession, error) {
	session, err := OpenSession(ctx, m.editor, itemID, m.logger)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.sessions[id] = &managedSession{session: session, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()

	m.logger.Debug("Opened staging session",
		zap.String("sessionID", id),
		zap.String("itemID", itemID.String()),
	)

	return id, session, nil
}

// Get returns a live session and extends its expiry
func (m *SessionManager) Get(id string) (*StagingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	now := m.now()
	if now.After(entry.expiresAt) {
		entry.session.Abandon()
		delete(m.sessions, id)
		return nil, apperrors.ErrSessionNotFound
	}
	entry.expiresAt = now.Add(m.ttl)
	return entry.session, nil
}

// Commit commits the session and forgets it once nothing is left pending
func (m *SessionManager) Commit(ctx context.Context, id string) (CommitResult, error) {
	session, err := m.Get(id)
	if err != nil {
		return CommitResult{}, err
	}

	result, err := session.Commit(ctx)
	if err != nil {
		return result, err
	}
	if session.Closed() {
		m.forget(id)
	}
	return result, nil
}

// Close abandons the session
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}
	entry.session.Abandon()
	return nil
}

// Len returns the number of tracked sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop ends the sweeper and abandons every open session
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)

		m.mu.Lock()
		defer m.mu.Unlock()
		for id, entry := range m.sessions {
			entry.session.Abandon()
			delete(m.sessions, id)
		}
	})
}

func (m *SessionManager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// sweep periodically abandons expired sessions
func (m *SessionManager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.expire()
		}
	}
}

func (m *SessionManager) expire() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			entry.session.Abandon()
			delete(m.sessions, id)
			expired++
		}
	}
	if expired > 0 {
		m.logger.Debug("Expired staging sessions", zap.Int("count", expired))
	}
	return expired
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
