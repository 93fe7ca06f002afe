package condition_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		want string
	}{
		{
			"trust and not betrayed",
			domain.And(
				domain.Compare("trust", domain.OpGreaterEqual, domain.Number(30)),
				domain.Not(domain.Check("flag_betrayed", domain.OpIsTrue)),
			),
			"(Trust >= 30 AND NOT (Betrayed is true))",
		},
		{
			"or with strings",
			domain.Or(
				domain.Compare("hero", domain.OpStartsWith, domain.String("Ada")),
				domain.Compare("inventory", domain.OpNotContains, domain.String("key")),
			),
			`(Hero starts with "Ada" OR Inventory does not contain "key")`,
		},
		{
			"missing name falls back to id",
			domain.Compare("scores", domain.OpEquals, domain.Numbers(1, 2.5)),
			"scores == [1, 2.5]",
		},
		{
			"undefined variable",
			domain.Check("ghost", domain.OpIsEmpty),
			"ghost is empty",
		},
		{
			"compound not renders first child",
			&domain.CompoundCondition{
				LogicalOp: domain.LogicalNot,
				Conditions: []domain.Condition{
					domain.Compare("trust", domain.OpLessThan, domain.Number(5)),
					domain.Check("flag_betrayed", domain.OpIsFalse),
				},
			},
			"NOT (Trust < 5)",
		},
		{
			"empty and",
			domain.And(),
			"()",
		},
	}

	eng := condition.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eng.String(tt.cond, defs()))
		})
	}
}
