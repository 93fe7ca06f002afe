package variables

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds the change history when no limit is configured.
const DefaultHistoryLimit = 1000

// Listener receives committed variable changes.
type Listener func(domain.VariableChange)

type subscription struct {
	id uint64
	fn Listener
}

// Manager is the single authoritative holder of one project's variable
// definitions and live values. Create one per project, session or test.
//
// All methods are safe for concurrent use. Listeners and hooks are never
// called while the internal lock is held, so they may call back into the
// Manager.
type Manager struct {
	mu sync.Mutex

	engine       *condition.Engine
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
	hooks        domain.Hooks
	historyLimit int

	vars    map[string]domain.Variable
	order   []string
	values  domain.Values
	history []domain.VariableChange

	branches  []domain.BranchCondition
	actions   []domain.SceneAction
	snapshots []domain.StateSnapshot

	playthrough *domain.PlaythroughState

	subs    map[string][]subscription
	anySubs []subscription
	nextSub uint64

	queue    []notice
	draining bool

	computedWarned map[string]bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHistoryLimit bounds the change history. Values below 1 keep the default.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithClock overrides the time source for change, snapshot and visit timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides how snapshot, playthrough and registration ids
// are generated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// New creates an empty Manager. A nil engine gets a default one.
func New(engine *condition.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:         engine,
		logger:         logging.NewNop(),
		now:            time.Now,
		newID:          uuid.NewString,
		historyLimit:   DefaultHistoryLimit,
		vars:           make(map[string]domain.Variable),
		values:         make(domain.Values),
		subs:           make(map[string][]subscription),
		computedWarned: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = condition.New(condition.WithLogger(m.logger))
	}
	return m
}

// Engine returns the condition engine used by the manager.
func (m *Manager) Engine() *condition.Engine {
	return m.engine
}

// --- Definitions ---

func zeroValue(k domain.Kind) domain.Value {
	switch k {
	case domain.KindString:
		return domain.String("")
	case domain.KindNumber:
		return domain.Number(0)
	case domain.KindBoolean:
		return domain.Bool(false)
	case domain.KindStringList:
		return domain.Strings()
	case domain.KindNumberList:
		return domain.Numbers()
	}
	return domain.Value{}
}

// normalizeDefinition fills optional fields and checks the default value.
func normalizeDefinition(v domain.Variable) (domain.Variable, error) {
	v = v.Clone()
	if v.ID == "" {
		return v, fmt.Errorf("%w: id is required", domain.ErrInvalidVariable)
	}
	if !v.Type.Valid() {
		return v, fmt.Errorf("%w: variable %q has unknown type %q", domain.ErrInvalidVariable, v.ID, v.Type)
	}
	if v.Scope == "" {
		v.Scope = domain.ScopeGlobal
	}
	if v.Default.IsZero() {
		v.Default = zeroValue(v.Type)
	}
	if normalized, ok := v.Default.As(v.Type); ok {
		v.Default = normalized
	}
	if err := v.Check(v.Default); err != nil {
		return v, fmt.Errorf("%w: default: %v", domain.ErrInvalidVariable, err)
	}
	return v, nil
}

// Register adds a variable definition. A missing default becomes the zero
// value of the type; the default must satisfy the constraints.
func (m *Manager) Register(v domain.Variable) error {
	v, err := normalizeDefinition(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vars[v.ID]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateVariable, v.ID)
	}
	m.vars[v.ID] = v
	m.order = append(m.order, v.ID)
	m.logger.Debug("variable registered", "variable_id", v.ID, "type", v.Type)
	return nil
}

// Update replaces an existing definition. An explicit value that no longer
// fits the new definition is dropped so reads fall back to the new default.
func (m *Manager) Update(v domain.Variable) error {
	v, err := normalizeDefinition(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vars[v.ID]; !exists {
		return fmt.Errorf("%w: %q", domain.ErrVariableNotFound, v.ID)
	}
	m.vars[v.ID] = v
	if current, ok := m.values[v.ID]; ok {
		if err := v.Check(current); err != nil || v.Computed {
			delete(m.values, v.ID)
			m.logger.Info("explicit value dropped after definition change", "variable_id", v.ID, "err", err)
		}
	}
	delete(m.computedWarned, v.ID)
	return nil
}

// Remove deletes a definition and its live value. History entries and
// subscriptions for the id are kept.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.vars[id]; !exists {
		return false
	}
	delete(m.vars, id)
	delete(m.values, id)
	for i, vid := range m.order {
		if vid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Variable returns a copy of a definition.
func (m *Manager) Variable(id string) (domain.Variable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[id]
	if !ok {
		return domain.Variable{}, false
	}
	return v.Clone(), true
}

// Variables returns copies of every definition in registration order.
func (m *Manager) Variables() []domain.Variable {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Variable, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.vars[id].Clone())
	}
	return out
}

// --- Reads ---

// current resolves the value of a defined variable. m.mu must be held.
func (m *Manager) current(id string) (domain.Value, bool) {
	def, ok := m.vars[id]
	if !ok {
		return domain.Value{}, false
	}
	if def.Computed {
		if !m.computedWarned[id] {
			m.computedWarned[id] = true
			m.logger.Warn("computed variable expressions are not evaluated; using default",
				"variable_id", id, "expression", def.Expression)
		}
		return def.Default.Clone(), true
	}
	if v, ok := m.values[id]; ok {
		return v.Clone(), true
	}
	return def.Default.Clone(), true
}

// Value returns the explicit value of a variable, or its default when none
// was set. Computed variables always report their default.
func (m *Manager) Value(id string) (domain.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current(id)
}

// Values returns the resolved value of every defined variable.
func (m *Manager) Values() domain.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved()
}

// resolved builds the full id→value map. m.mu must be held.
func (m *Manager) resolved() domain.Values {
	out := make(domain.Values, len(m.vars))
	for id := range m.vars {
		out[id], _ = m.current(id)
	}
	return out
}

// evalState is the value map handed to the engine. Computed variables are
// left out so the engine resolves them to their default. m.mu must be held.
func (m *Manager) evalState() domain.Values {
	state := make(domain.Values, len(m.values))
	for id, v := range m.values {
		if def, ok := m.vars[id]; ok && !def.Computed {
			state[id] = v
		}
	}
	return state
}

// --- Subscriptions ---

// Subscribe registers fn for changes of one variable. The returned function
// removes the subscription and may be called more than once.
func (m *Manager) Subscribe(id string, fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	sub := subscription{id: m.nextSub, fn: fn}
	m.subs[id] = append(m.subs[id], sub)
	return m.unsubscriber(func() {
		m.subs[id] = without(m.subs[id], sub.id)
		if len(m.subs[id]) == 0 {
			delete(m.subs, id)
		}
	})
}

// SubscribeAll registers fn for changes of any variable. Any-variable
// listeners run after the listeners of the specific id.
func (m *Manager) SubscribeAll(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	sub := subscription{id: m.nextSub, fn: fn}
	m.anySubs = append(m.anySubs, sub)
	return m.unsubscriber(func() {
		m.anySubs = without(m.anySubs, sub.id)
	})
}

func (m *Manager) unsubscriber(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			remove()
		})
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
