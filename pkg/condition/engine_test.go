package condition_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defs() map[string]domain.Variable {
	return condition.Index([]domain.Variable{
		{ID: "trust", Name: "Trust", Type: domain.KindNumber, Default: domain.Number(0)},
		{ID: "flag_betrayed", Name: "Betrayed", Type: domain.KindBoolean, Default: domain.Bool(false)},
		{ID: "hero", Name: "Hero", Type: domain.KindString, Default: domain.String("Ada Lovelace")},
		{ID: "inventory", Name: "Inventory", Type: domain.KindStringList, Default: domain.Strings()},
		{ID: "scores", Type: domain.KindNumberList, Default: domain.Numbers(1, 2, 3)},
	})
}

func TestEvaluate_TrustAndNotBetrayed(t *testing.T) {
	eng := condition.New()
	cond := domain.And(
		domain.Compare("trust", domain.OpGreaterEqual, domain.Number(30)),
		domain.Not(domain.Check("flag_betrayed", domain.OpIsTrue)),
	)

	res := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(40), "flag_betrayed": domain.Bool(false)})
	require.True(t, res.Success)
	assert.True(t, res.Result)

	res = eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(40), "flag_betrayed": domain.Bool(true)})
	require.True(t, res.Success)
	assert.False(t, res.Result)
}

func TestEvaluate_CompoundNotNegatesOnlyFirstChild(t *testing.T) {
	eng := condition.New()
	state := domain.Values{"trust": domain.Number(10)}

	// First child false, second child true: a "none of" reading would give
	// false, but only the first child is negated.
	cond := &domain.CompoundCondition{
		LogicalOp: domain.LogicalNot,
		Conditions: []domain.Condition{
			domain.Compare("trust", domain.OpGreaterThan, domain.Number(50)),
			domain.Compare("trust", domain.OpEquals, domain.Number(10)),
		},
	}
	res := eng.Evaluate(cond, defs(), state)
	require.True(t, res.Success)
	assert.True(t, res.Result)

	// The ignored children are not even resolved.
	cond.Conditions[1] = domain.Compare("ghost", domain.OpEquals, domain.Number(1))
	res = eng.Evaluate(cond, defs(), state)
	require.True(t, res.Success)
	assert.True(t, res.Result)
}

func TestEvaluate_EmptyCompounds(t *testing.T) {
	eng := condition.New()

	res := eng.Evaluate(domain.And(), defs(), nil)
	require.True(t, res.Success)
	assert.True(t, res.Result)

	res = eng.Evaluate(domain.Or(), defs(), nil)
	require.True(t, res.Success)
	assert.False(t, res.Result)

	res = eng.Evaluate(&domain.CompoundCondition{LogicalOp: domain.LogicalNot}, defs(), nil)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidCondition)
}

func TestEvaluate_Operators(t *testing.T) {
	state := domain.Values{
		"trust":     domain.Number(40),
		"inventory": domain.Strings("key", "42"),
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"equals", domain.Compare("trust", domain.OpEquals, domain.Number(40)), true},
		{"equals kind mismatch", domain.Compare("trust", domain.OpEquals, domain.String("40")), false},
		{"not equals", domain.Compare("hero", domain.OpNotEquals, domain.String("Bob")), true},
		{"list equality", domain.Compare("scores", domain.OpEquals, domain.Numbers(1, 2, 3)), true},
		{"list equality order", domain.Compare("scores", domain.OpEquals, domain.Numbers(3, 2, 1)), false},
		{"greater than", domain.Compare("trust", domain.OpGreaterThan, domain.Number(39)), true},
		{"less than numeric string", domain.Compare("trust", domain.OpLessThan, domain.String("41")), true},
		{"greater equal", domain.Compare("trust", domain.OpGreaterEqual, domain.Number(40)), true},
		{"less equal", domain.Compare("trust", domain.OpLessEqual, domain.Number(39)), false},
		{"list length", domain.Compare("scores", domain.OpGreaterThan, domain.Number(2)), true},
		{"bool as number", domain.Compare("flag_betrayed", domain.OpLessThan, domain.Number(1)), true},
		{"non-numeric string is zero", domain.Compare("hero", domain.OpLessThan, domain.Number(1)), true},
		{"contains member", domain.Compare("inventory", domain.OpContains, domain.String("key")), true},
		{"contains coerced member", domain.Compare("inventory", domain.OpContains, domain.Number(42)), true},
		{"not contains", domain.Compare("inventory", domain.OpNotContains, domain.String("map")), true},
		{"substring", domain.Compare("hero", domain.OpContains, domain.String("Love")), true},
		{"starts with", domain.Compare("hero", domain.OpStartsWith, domain.String("Ada")), true},
		{"ends with", domain.Compare("hero", domain.OpEndsWith, domain.String("Ada")), false},
		{"number starts with", domain.Compare("trust", domain.OpStartsWith, domain.String("4")), true},
		{"is empty list", domain.Check("scores", domain.OpIsEmpty), false},
		{"is not empty", domain.Check("inventory", domain.OpIsNotEmpty), true},
		{"false is empty", domain.Check("flag_betrayed", domain.OpIsEmpty), true},
		{"is true number", domain.Check("trust", domain.OpIsTrue), true},
		{"is false", domain.Check("flag_betrayed", domain.OpIsFalse), true},
		{"or", domain.Or(domain.Check("flag_betrayed", domain.OpIsTrue), domain.Check("trust", domain.OpIsTrue)), true},
	}

	eng := condition.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := eng.Evaluate(tt.cond, defs(), state)
			require.True(t, res.Success, "evaluation failed: %v", res.Err)
			assert.Equal(t, tt.want, res.Result)
		})
	}
}

func TestEvaluate_UsesDefaults(t *testing.T) {
	eng := condition.New()
	res := eng.Evaluate(domain.Compare("trust", domain.OpEquals, domain.Number(0)), defs(), nil)
	require.True(t, res.Success)
	assert.True(t, res.Result)
	assert.Equal(t, domain.Number(0), res.EvaluatedVariables["trust"])
}

func TestEvaluate_MissingVariableIsFailure(t *testing.T) {
	eng := condition.New()
	res := eng.Evaluate(domain.And(
		domain.Check("trust", domain.OpIsFalse),
		domain.Compare("ghost", domain.OpEquals, domain.Number(1)),
	), defs(), nil)

	assert.False(t, res.Success)
	assert.False(t, res.Result)
	assert.ErrorIs(t, res.Err, domain.ErrVariableNotFound)

	var evalErr *condition.EvalError
	require.True(t, errors.As(res.Err, &evalErr))
	assert.Equal(t, "ghost", evalErr.Condition.(*domain.SimpleCondition).VariableID)
}

func TestEvaluate_UnknownOperatorIsFailure(t *testing.T) {
	eng := condition.New()
	res := eng.Evaluate(domain.Compare("trust", domain.Operator("matches"), domain.Number(1)), defs(), nil)
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
}

func TestEvaluate_Trace(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	eng := condition.New(condition.WithClock(func() time.Time { return now }))

	cond := domain.And(
		domain.Compare("trust", domain.OpGreaterEqual, domain.Number(30)),
		domain.Not(domain.Check("flag_betrayed", domain.OpIsTrue)),
	)
	res := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(40)})
	require.True(t, res.Success)

	// Post-order: two leaves, the not, then the and.
	require.Len(t, res.Trace, 4)
	assert.Same(t, cond, res.Trace[3].Condition)
	assert.True(t, res.Trace[3].Result)
	assert.False(t, res.Trace[1].Result)
	assert.True(t, res.Trace[2].Result)
	assert.Equal(t, now, res.Trace[0].Timestamp)
	assert.Len(t, res.Trace[3].Values, 2)
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	eng := condition.New()
	res := eng.Evaluate(domain.And(
		domain.Check("flag_betrayed", domain.OpIsTrue),
		domain.Compare("trust", domain.OpEquals, domain.Number(0)),
	), defs(), nil)

	require.True(t, res.Success)
	assert.False(t, res.Result)
	assert.NotContains(t, res.EvaluatedVariables, "trust")
}

func TestEvaluate_Cache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := condition.New(
		condition.WithCacheTTL(time.Second),
		condition.WithClock(func() time.Time { return now }),
	)
	cond := domain.Compare("trust", domain.OpGreaterThan, domain.Number(10))

	res := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(20)})
	require.True(t, res.Success)
	assert.True(t, res.Result)

	// A different value must not hit the previous entry.
	res = eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(5)})
	require.True(t, res.Success)
	assert.False(t, res.Result)

	cached := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(20)})
	assert.True(t, cached.Result)

	// Mutating a returned result does not poison the cache.
	cached.EvaluatedVariables["trust"] = domain.Number(-1)
	again := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(20)})
	assert.Equal(t, domain.Number(20), again.EvaluatedVariables["trust"])

	require.NotEmpty(t, again.Trace)
	require.NotNil(t, again.Trace[0].Values)
	again.Trace[0].Values["trust"] = domain.Number(-1)
	again.Trace[0].Condition.(*domain.SimpleCondition).Value = domain.Number(99)

	last := eng.Evaluate(cond, defs(), domain.Values{"trust": domain.Number(20)})
	require.NotEmpty(t, last.Trace)
	assert.Equal(t, domain.Number(20), last.Trace[0].Values["trust"])
	assert.Equal(t, domain.Number(10), last.Trace[0].Condition.(*domain.SimpleCondition).Value)
	assert.Equal(t, domain.Number(10), cond.Value, "the caller's condition is never aliased")
}
