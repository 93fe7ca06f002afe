package condition

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
)

// TraceEntry records one recursive evaluation step.
type TraceEntry struct {
	Condition domain.Condition
	Values    map[string]domain.Value
	Result    bool
	Timestamp time.Time
}

// Result is the outcome of Evaluate. When Success is false, Err explains
// why and Result must be ignored.
type Result struct {
	Success            bool
	Result             bool
	Err                error
	EvaluatedVariables map[string]domain.Value
	Trace              []TraceEntry
}

// EvalError is a structural or reference fault raised during evaluation.
type EvalError struct {
	Condition domain.Condition
	Msg       string
	Err       error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EvalError) Unwrap() error { return e.Err }

// Engine evaluates, validates and renders condition trees. It holds no
// narrative state; the optional cache is purely an optimization.
// Safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
	cache  *cache
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for trace timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCacheTTL enables a short-lived evaluation cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.cache = newCache(ttl)
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index builds the definition lookup Evaluate and Validate expect.
func Index(vars []domain.Variable) map[string]domain.Variable {
	defs := make(map[string]domain.Variable, len(vars))
	for _, v := range vars {
		defs[v.ID] = v
	}
	return defs
}

// Evaluate resolves every referenced variable (state entry or default) and
// computes the boolean value of c. Faults never escape: they come back as
// a Result with Success set to false.
func (e *Engine) Evaluate(c domain.Condition, defs map[string]domain.Variable, state domain.Values) (res Result) {
	var key string
	if e.cache != nil {
		key = cacheKey(c, defs, state)
		if cached, ok := e.cache.get(key, e.now()); ok {
			return cached
		}
	}

	ev := &evaluation{
		defs:      defs,
		state:     state,
		now:       e.now,
		evaluated: make(map[string]domain.Value),
	}

	defer func() {
		if r := recover(); r != nil {
			err := &EvalError{Condition: c, Msg: fmt.Sprintf("evaluation panicked: %v", r)}
			e.logger.Error("condition evaluation panicked", "err", err)
			res = Result{Success: false, Err: err, EvaluatedVariables: ev.evaluated, Trace: ev.trace}
		}
	}()

	ok, _, err := ev.eval(c)
	if err != nil {
		e.logger.Debug("condition evaluation failed", "err", err)
		return Result{Success: false, Err: err, EvaluatedVariables: ev.evaluated, Trace: ev.trace}
	}

	res = Result{Success: true, Result: ok, EvaluatedVariables: ev.evaluated, Trace: ev.trace}
	if e.cache != nil && key != "" {
		e.cache.put(key, res, e.now())
	}
	return res
}

type evaluation struct {
	defs      map[string]domain.Variable
	state     domain.Values
	now       func() time.Time
	evaluated map[string]domain.Value
	trace     []TraceEntry
}

func (ev *evaluation) record(c domain.Condition, values map[string]domain.Value, result bool) {
	ev.trace = append(ev.trace, TraceEntry{
		Condition: c,
		Values:    values,
		Result:    result,
		Timestamp: ev.now(),
	})
}

// resolve returns the live value or the default of a defined variable.
func (ev *evaluation) resolve(id string) (domain.Value, error) {
	def, ok := ev.defs[id]
	if !ok {
		return domain.Value{}, fmt.Errorf("%w: %q", domain.ErrVariableNotFound, id)
	}
	v, ok := ev.state[id]
	if !ok || v.IsZero() {
		v = def.Default
	}
	ev.evaluated[id] = v
	return v, nil
}

func (ev *evaluation) eval(c domain.Condition) (bool, map[string]domain.Value, error) {
	switch t := c.(type) {
	case *domain.SimpleCondition:
		actual, err := ev.resolve(t.VariableID)
		if err != nil {
			return false, nil, &EvalError{Condition: c, Msg: "unknown variable reference", Err: err}
		}
		result, err := compare(t.Operator, actual, t.Value)
		if err != nil {
			return false, nil, &EvalError{Condition: c, Msg: fmt.Sprintf("variable %q", t.VariableID), Err: err}
		}
		seen := map[string]domain.Value{t.VariableID: actual}
		ev.record(c, seen, result)
		return result, seen, nil

	case *domain.CompoundCondition:
		seen := make(map[string]domain.Value)
		var result bool
		switch t.LogicalOp {
		case domain.LogicalAnd:
			result = true
			for _, child := range t.Conditions {
				ok, vals, err := ev.eval(child)
				if err != nil {
					return false, nil, err
				}
				merge(seen, vals)
				if !ok {
					result = false
					break
				}
			}
		case domain.LogicalOr:
			for _, child := range t.Conditions {
				ok, vals, err := ev.eval(child)
				if err != nil {
					return false, nil, err
				}
				merge(seen, vals)
				if ok {
					result = true
					break
				}
			}
		case domain.LogicalNot:
			// Only the first child participates.
			if len(t.Conditions) == 0 {
				return false, nil, &EvalError{Condition: c, Msg: "compound not has no conditions", Err: domain.ErrInvalidCondition}
			}
			ok, vals, err := ev.eval(t.Conditions[0])
			if err != nil {
				return false, nil, err
			}
			merge(seen, vals)
			result = !ok
		default:
			return false, nil, &EvalError{Condition: c, Msg: fmt.Sprintf("unknown logical operator %q", t.LogicalOp), Err: domain.ErrInvalidCondition}
		}
		ev.record(c, seen, result)
		return result, seen, nil

	case *domain.NotCondition:
		if t.Condition == nil {
			return false, nil, &EvalError{Condition: c, Msg: "not has no condition", Err: domain.ErrInvalidCondition}
		}
		ok, vals, err := ev.eval(t.Condition)
		if err != nil {
			return false, nil, err
		}
		ev.record(c, vals, !ok)
		return !ok, vals, nil
	}

	return false, nil, &EvalError{Condition: c, Msg: fmt.Sprintf("unsupported condition %T", c), Err: domain.ErrInvalidCondition}
}

func merge(dst, src map[string]domain.Value) {
	for k, v := range src {
		dst[k] = v
	}
}
