package condition

import (
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

var phrases = map[domain.Operator]string{
	domain.OpEquals:       "==",
	domain.OpNotEquals:    "!=",
	domain.OpGreaterThan:  ">",
	domain.OpLessThan:     "<",
	domain.OpGreaterEqual: ">=",
	domain.OpLessEqual:    "<=",
	domain.OpContains:     "contains",
	domain.OpNotContains:  "does not contain",
	domain.OpStartsWith:   "starts with",
	domain.OpEndsWith:     "ends with",
	domain.OpIsEmpty:      "is empty",
	domain.OpIsNotEmpty:   "is not empty",
	domain.OpIsTrue:       "is true",
	domain.OpIsFalse:      "is false",
}

// String renders c as a human-readable boolean expression, using variable
// display names, e.g. (Trust >= 30 AND NOT (Betrayed is true)).
func (e *Engine) String(c domain.Condition, defs map[string]domain.Variable) string {
	var sb strings.Builder
	writeCondition(&sb, c, defs)
	return sb.String()
}

func writeCondition(sb *strings.Builder, c domain.Condition, defs map[string]domain.Variable) {
	switch t := c.(type) {
	case *domain.SimpleCondition:
		name := t.VariableID
		if def, ok := defs[t.VariableID]; ok {
			name = def.DisplayName()
		}
		sb.WriteString(name)
		sb.WriteByte(' ')
		phrase, ok := phrases[t.Operator]
		if !ok {
			phrase = string(t.Operator)
		}
		sb.WriteString(phrase)
		if !t.Operator.Unary() {
			sb.WriteByte(' ')
			sb.WriteString(literal(t.Value))
		}
	case *domain.CompoundCondition:
		if t.LogicalOp == domain.LogicalNot {
			sb.WriteString("NOT (")
			if len(t.Conditions) > 0 {
				writeCondition(sb, t.Conditions[0], defs)
			}
			sb.WriteByte(')')
			return
		}
		sep := " AND "
		if t.LogicalOp == domain.LogicalOr {
			sep = " OR "
		}
		sb.WriteByte('(')
		for i, child := range t.Conditions {
			if i > 0 {
				sb.WriteString(sep)
			}
			writeCondition(sb, child, defs)
		}
		sb.WriteByte(')')
	case *domain.NotCondition:
		sb.WriteString("NOT (")
		writeCondition(sb, t.Condition, defs)
		sb.WriteByte(')')
	default:
		sb.WriteString("?")
	}
}

func literal(v domain.Value) string {
	switch v.Kind() {
	case domain.KindString:
		return strconv.Quote(v.Str())
	case domain.KindStringList, domain.KindNumberList:
		parts := make([]string, 0, v.Len())
		for _, elem := range v.Elements() {
			parts = append(parts, literal(elem))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case "":
		return "<none>"
	}
	return v.String()
}
