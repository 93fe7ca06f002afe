package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/variables"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to persisted projects, ensuring that
// read-modify-write cycles on one id never interleave. Per-id locks are
// reference counted and dropped once unused.
type Manager struct {
	store ports.ProjectStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	factory func() *variables.Manager
	logger  *slog.Logger
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

// WithFactory sets how Update builds the variables.Manager it imports each
// document into, e.g. to attach hooks or a shared condition engine.
func WithFactory(fn func() *variables.Manager) Option {
	return func(m *Manager) {
		m.factory = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given project store.
func NewManager(store ports.ProjectStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		logger := m.logger
		m.factory = func() *variables.Manager {
			return variables.New(nil, variables.WithLogger(logger))
		}
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load retrieves a stored project document.
func (m *Manager) Load(ctx context.Context, id string) (*domain.ProjectDocument, error) {
	var doc *domain.ProjectDocument
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		return err
	})
	return doc, err
}

// LoadOrCreate loads the project, storing initial under id first if
// nothing is there yet. Concurrent callers agree on a single document.
func (m *Manager) LoadOrCreate(ctx context.Context, id string, initial *domain.ProjectDocument) (*domain.ProjectDocument, error) {
	var doc *domain.ProjectDocument
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrProjectNotFound) {
			return fmt.Errorf("failed to check project existence: %w", err)
		}

		doc = initial
		if doc == nil {
			doc = &domain.ProjectDocument{}
		}
		if err := m.store.Save(ctx, id, doc); err != nil {
			return fmt.Errorf("failed to initialize project: %w", err)
		}
		m.logger.Info("project created", "project_id", id)
		return nil
	})
	return doc, err
}

// Update imports the stored document into a fresh variables.Manager, runs
// fn and saves the exported result, all under the project lock. Nothing is
// saved when fn returns an error.
func (m *Manager) Update(ctx context.Context, id string, fn func(*variables.Manager) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		doc, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		vm := m.factory()
		if err := vm.Import(*doc); err != nil {
			return fmt.Errorf("project %q: %w", id, err)
		}
		if err := fn(vm); err != nil {
			return err
		}
		updated := vm.Export()
		return m.store.Save(ctx, id, &updated)
	})
}

// Save persists the project document.
func (m *Manager) Save(ctx context.Context, id string, doc *domain.ProjectDocument) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, doc)
	})
}

// Delete removes the project from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying project store.
func (m *Manager) Store() ports.ProjectStore {
	return m.store
}

// WithLock executes fn while holding the lock for the project.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"project_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
