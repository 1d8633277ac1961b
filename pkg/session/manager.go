package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// DefaultMaxDocuments caps the live documents kept in memory.
const DefaultMaxDocuments = 1024

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// liveDoc is a hydrated document and the tick of its last use.
type liveDoc struct {
	doc  *domain.Document
	used uint64
}

// Manager serializes access to session workspaces.
// Unused locks are garbage collected by reference counting. Live documents
// beyond the cap are evicted least recently used first, skipping sessions
// in use; an evicted session rehydrates from its last saved snapshot.
type Manager struct {
	store ports.SnapshotStore

	mu      sync.Mutex
	locks   map[string]*lockEntry
	docs    map[string]*liveDoc
	tick    uint64
	maxDocs int

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithMaxDocuments caps the live documents kept in memory.
func WithMaxDocuments(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxDocs = n
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager persisting snapshots to store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		docs:    make(map[string]*liveDoc),
		maxDocs: DefaultMaxDocuments,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the session's lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// WithWorkspace runs fn with exclusive access to the session's workspace.
// An empty sessionID selects DefaultSessionID.
func (m *Manager) WithWorkspace(ctx context.Context, sessionID string, fn func(*Workspace) error) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		doc, err := m.document(ctx, sessionID)
		if err != nil {
			return err
		}
		ws := &Workspace{ID: sessionID, ctx: ctx, doc: doc, mgr: m}
		err = fn(ws)
		if ws.cleared && doc.Len() == 0 {
			m.forget(sessionID)
		}
		return err
	})
}

// document returns the live document, hydrating it from the store on first use.
// Callers hold the session lock.
func (m *Manager) document(ctx context.Context, sessionID string) (*domain.Document, error) {
	m.mu.Lock()
	if live, ok := m.docs[sessionID]; ok {
		m.tick++
		live.used = m.tick
		m.mu.Unlock()
		return live.doc, nil
	}
	m.mu.Unlock()

	doc := &domain.Document{}
	snap, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		if err := doc.Replace(snap.Elements); err != nil {
			m.logger.Warn("ignoring corrupt snapshot", "session_id", sessionID, "err", err)
		}
	case errors.Is(err, domain.ErrSnapshotNotFound):
	default:
		return nil, fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}

	m.mu.Lock()
	m.tick++
	m.docs[sessionID] = &liveDoc{doc: doc, used: m.tick}
	m.evictLocked()
	m.mu.Unlock()
	return doc, nil
}

// evictLocked drops least recently used documents of idle sessions until
// the cap holds. Sessions holding a lock entry are never evicted.
func (m *Manager) evictLocked() {
	for len(m.docs) > m.maxDocs {
		victim := ""
		var oldest uint64
		for id, live := range m.docs {
			if _, busy := m.locks[id]; busy {
				continue
			}
			if victim == "" || live.used < oldest {
				victim, oldest = id, live.used
			}
		}
		if victim == "" {
			return
		}
		delete(m.docs, victim)
		m.logger.Debug("evicted idle session document", "session_id", victim)
	}
}

// forget drops the live document of a cleared session.
func (m *Manager) forget(sessionID string) {
	m.mu.Lock()
	delete(m.docs, sessionID)
	m.mu.Unlock()
}

// Sessions returns the ids of sessions with a live document, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}
