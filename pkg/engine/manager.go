package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/storage"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager holds the live sessions of a server. Every session is written
// through to storage after it changes, so another instance can resume it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	registry *capability.Registry
	defaults Options
	storage  storage.Storage
	logger   *slog.Logger
}

// NewManager creates a manager. defaults apply to every new session unless a
// start request overrides them.
func NewManager(registry *capability.Registry, defaults Options, store storage.Storage, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Logger == nil {
		defaults.Logger = logger
	}
	if defaults.Recorder == nil {
		defaults.Recorder = nopRecorder{}
	}
	if store == nil {
		store = storage.NewMockStorage()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		registry: registry,
		defaults: defaults,
		storage:  store,
		logger:   logger,
	}
}

// Start creates a session and plays its opening scene.
func (m *Manager) Start(ctx context.Context, req chat.StartRequest) (*Session, *Response, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	opts := m.defaults
	if req.MaxTurns > 0 {
		opts.MaxTurns = req.MaxTurns
	}
	if req.Theme != "" {
		opts.Theme = req.Theme
	}

	sess, err := NewSession(m.registry, opts)
	if err != nil {
		return nil, nil, err
	}
	resp, err := sess.Start(ctx, req.Name)
	if err != nil {
		return nil, nil, err
	}

	m.add(sess)
	m.persist(ctx, sess)
	return sess, resp, nil
}

// Get returns a live session, loading it from storage when this instance
// does not hold it.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	snap, err := m.storage.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}

	sess, err = NewSession(m.registry, m.defaults)
	if err != nil {
		return nil, err
	}
	if err := sess.Restore(snap); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}

	m.mu.Lock()
	// Another request may have loaded it meanwhile.
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[id] = sess
	n := len(m.sessions)
	m.mu.Unlock()

	m.defaults.Recorder.SetActiveSessions(n)
	m.logger.Info("Session loaded from storage", "session_id", id)
	return sess, nil
}

// Handle routes a request to its session and persists the result.
func (m *Manager) Handle(ctx context.Context, id uuid.UUID, text string) (*Response, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := sess.Handle(ctx, text)
	if !resp.Local {
		m.persist(ctx, sess)
	}
	return resp, nil
}

// Delete forgets a session here and in storage.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.defaults.Recorder.SetActiveSessions(n)
	return m.storage.DeleteSnapshot(ctx, id)
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Storage returns the backing storage.
func (m *Manager) Storage() storage.Storage {
	return m.storage
}

func (m *Manager) add(sess *Session) {
	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	n := len(m.sessions)
	m.mu.Unlock()
	m.defaults.Recorder.SetActiveSessions(n)
}

// persist saves the session. Failures are logged; the in-memory session
// remains authoritative.
func (m *Manager) persist(ctx context.Context, sess *Session) {
	snap := sess.Snapshot()
	id := snap.GameState.ID
	if err := m.storage.SaveSnapshot(ctx, id, snap); err != nil {
		m.logger.Error("Failed to persist session", "session_id", id, "error", err)
	}
}
