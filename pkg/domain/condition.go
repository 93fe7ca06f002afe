package domain

import (
	"encoding/json"
	"fmt"
)

// Operator is the comparison applied by a simple condition.
type Operator string

const (
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "not_equals"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpContains     Operator = "contains"
	OpNotContains  Operator = "not_contains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpIsEmpty      Operator = "is_empty"
	OpIsNotEmpty   Operator = "is_not_empty"
	OpIsTrue       Operator = "is_true"
	OpIsFalse      Operator = "is_false"
)

// Unary reports whether the operator ignores the comparison value.
func (o Operator) Unary() bool {
	switch o {
	case OpIsEmpty, OpIsNotEmpty, OpIsTrue, OpIsFalse:
		return true
	}
	return false
}

// LogicalOp joins the children of a compound condition.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "and"
	LogicalOr  LogicalOp = "or"
	// LogicalNot negates only the first child of the compound; any further
	// children are ignored. Saved projects depend on this.
	LogicalNot LogicalOp = "not"
)

// Condition kinds as they appear in the "type" discriminant.
const (
	ConditionSimple   = "simple"
	ConditionCompound = "compound"
	ConditionNot      = "not"
)

// Condition is a boolean expression tree over variables. It is implemented
// by *SimpleCondition, *CompoundCondition and *NotCondition only.
type Condition interface {
	conditionKind() string
}

// SimpleCondition compares one variable against a literal.
type SimpleCondition struct {
	VariableID string   `json:"variableId"`
	Operator   Operator `json:"operator"`
	Value      Value    `json:"value"`
}

// CompoundCondition combines child conditions with a logical operator.
type CompoundCondition struct {
	LogicalOp  LogicalOp   `json:"logicalOp"`
	Conditions []Condition `json:"conditions"`
}

// NotCondition negates a single child.
type NotCondition struct {
	Condition Condition `json:"condition"`
}

func (*SimpleCondition) conditionKind() string   { return ConditionSimple }
func (*CompoundCondition) conditionKind() string { return ConditionCompound }
func (*NotCondition) conditionKind() string      { return ConditionNot }

// KindOf returns the discriminant of c, or "" for nil.
func KindOf(c Condition) string {
	if c == nil {
		return ""
	}
	return c.conditionKind()
}

// Compare builds a simple condition.
func Compare(variableID string, op Operator, value Value) *SimpleCondition {
	return &SimpleCondition{VariableID: variableID, Operator: op, Value: value}
}

// Check builds a simple condition for a unary operator.
func Check(variableID string, op Operator) *SimpleCondition {
	return &SimpleCondition{VariableID: variableID, Operator: op}
}

// And builds a compound "and".
func And(children ...Condition) *CompoundCondition {
	return &CompoundCondition{LogicalOp: LogicalAnd, Conditions: children}
}

// Or builds a compound "or".
func Or(children ...Condition) *CompoundCondition {
	return &CompoundCondition{LogicalOp: LogicalOr, Conditions: children}
}

// Not builds a negation.
func Not(child Condition) *NotCondition {
	return &NotCondition{Condition: child}
}

// MarshalJSON adds the "type" discriminant.
func (c *SimpleCondition) MarshalJSON() ([]byte, error) {
	type alias SimpleCondition
	var value *Value
	if !c.Value.IsZero() {
		v := c.Value
		value = &v
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
		Value *Value `json:"value,omitempty"`
	}{ConditionSimple, (*alias)(c), value})
}

// MarshalJSON adds the "type" discriminant.
func (c *CompoundCondition) MarshalJSON() ([]byte, error) {
	children := c.Conditions
	if children == nil {
		children = []Condition{}
	}
	return json.Marshal(struct {
		Type       string      `json:"type"`
		LogicalOp  LogicalOp   `json:"logicalOp"`
		Conditions []Condition `json:"conditions"`
	}{ConditionCompound, c.LogicalOp, children})
}

// UnmarshalJSON decodes each child through DecodeCondition.
func (c *CompoundCondition) UnmarshalJSON(data []byte) error {
	var aux struct {
		LogicalOp  LogicalOp         `json:"logicalOp"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.LogicalOp = aux.LogicalOp
	c.Conditions = make([]Condition, 0, len(aux.Conditions))
	for i, raw := range aux.Conditions {
		child, err := DecodeCondition(raw)
		if err != nil {
			return fmt.Errorf("conditions[%d]: %w", i, err)
		}
		c.Conditions = append(c.Conditions, child)
	}
	return nil
}

// MarshalJSON adds the "type" discriminant.
func (c *NotCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string    `json:"type"`
		Condition Condition `json:"condition"`
	}{ConditionNot, c.Condition})
}

// UnmarshalJSON decodes the child through DecodeCondition.
func (c *NotCondition) UnmarshalJSON(data []byte) error {
	var aux struct {
		Condition json.RawMessage `json:"condition"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	child, err := DecodeCondition(aux.Condition)
	if err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	c.Condition = child
	return nil
}

// DecodeCondition decodes a JSON condition tree, dispatching on "type".
// A literal null decodes to a nil Condition.
func DecodeCondition(data []byte) (Condition, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case ConditionSimple:
		var c SimpleCondition
		type alias SimpleCondition
		if err := json.Unmarshal(data, (*alias)(&c)); err != nil {
			return nil, err
		}
		return &c, nil
	case ConditionCompound:
		var c CompoundCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case ConditionNot:
		var c NotCondition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, fmt.Errorf("%w: unknown condition type %q", ErrInvalidCondition, head.Type)
}

// CloneCondition deep-copies a condition tree.
func CloneCondition(c Condition) Condition {
	switch t := c.(type) {
	case *SimpleCondition:
		cp := *t
		cp.Value = t.Value.Clone()
		return &cp
	case *CompoundCondition:
		cp := &CompoundCondition{LogicalOp: t.LogicalOp, Conditions: make([]Condition, len(t.Conditions))}
		for i, child := range t.Conditions {
			cp.Conditions[i] = CloneCondition(child)
		}
		return cp
	case *NotCondition:
		return &NotCondition{Condition: CloneCondition(t.Condition)}
	}
	return nil
}

// VariableRefs returns every variable id referenced by c, in tree order,
// without duplicates.
func VariableRefs(c Condition) []string {
	var refs []string
	seen := make(map[string]bool)
	var walk func(Condition)
	walk = func(c Condition) {
		switch t := c.(type) {
		case *SimpleCondition:
			if !seen[t.VariableID] {
				seen[t.VariableID] = true
				refs = append(refs, t.VariableID)
			}
		case *CompoundCondition:
			for _, child := range t.Conditions {
				walk(child)
			}
		case *NotCondition:
			walk(t.Condition)
		}
	}
	walk(c)
	return refs
}
