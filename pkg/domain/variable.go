package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Scope tells where a variable lives in the narrative.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeScene     Scope = "scene"
	ScopeCharacter Scope = "character"
)

// Constraints restrict the values a variable accepts.
type Constraints struct {
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern       string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	AllowedValues []Value  `json:"allowedValues,omitempty" yaml:"allowedValues,omitempty"`
}

// Variable is a named, typed, scoped unit of narrative state.
type Variable struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Type        Kind         `json:"type" yaml:"type"`
	Default     Value        `json:"defaultValue" yaml:"defaultValue"`
	Scope       Scope        `json:"scope" yaml:"scope"`
	SceneID     string       `json:"sceneId,omitempty" yaml:"sceneId,omitempty"`
	CharacterID string       `json:"characterId,omitempty" yaml:"characterId,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Computed variables declare an expression that is never evaluated;
	// reads always resolve to Default.
	Computed   bool   `json:"isComputed,omitempty" yaml:"isComputed,omitempty"`
	Expression string `json:"computeExpression,omitempty" yaml:"computeExpression,omitempty"`
}

// DisplayName returns Name, falling back to ID.
func (v Variable) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}

// Clone returns a deep copy of the definition.
func (v Variable) Clone() Variable {
	c := v
	c.Default = v.Default.Clone()
	if v.Constraints != nil {
		cons := *v.Constraints
		if v.Constraints.Min != nil {
			m := *v.Constraints.Min
			cons.Min = &m
		}
		if v.Constraints.Max != nil {
			m := *v.Constraints.Max
			cons.Max = &m
		}
		cons.AllowedValues = make([]Value, len(v.Constraints.AllowedValues))
		for i, av := range v.Constraints.AllowedValues {
			cons.AllowedValues[i] = av.Clone()
		}
		if v.Constraints.AllowedValues == nil {
			cons.AllowedValues = nil
		}
		c.Constraints = &cons
	}
	return c
}

// UnmarshalJSON normalizes empty list defaults to the declared type.
func (v *Variable) UnmarshalJSON(data []byte) error {
	type alias Variable
	aux := (*alias)(v)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if normalized, ok := v.Default.As(v.Type); ok {
		v.Default = normalized
	}
	return nil
}

// Check verifies that value has the declared kind and satisfies every
// constraint. It returns nil when the value is acceptable.
func (v Variable) Check(value Value) error {
	if value.Kind() != v.Type {
		return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("expected %s, got %s", v.Type, value.Kind())}
	}
	if !value.Finite() {
		return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("%s is not a finite number", value)}
	}
	c := v.Constraints
	if c == nil {
		return nil
	}
	if value.Kind() == KindNumber {
		if c.Min != nil && value.Num() < *c.Min {
			return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("%s is below minimum %s", value, Number(*c.Min))}
		}
		if c.Max != nil && value.Num() > *c.Max {
			return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("%s is above maximum %s", value, Number(*c.Max))}
		}
	}
	if value.Kind() == KindString && c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("invalid pattern %q: %v", c.Pattern, err)}
		}
		if !re.MatchString(value.Str()) {
			return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("%q does not match pattern %q", value.Str(), c.Pattern)}
		}
	}
	if len(c.AllowedValues) > 0 {
		candidates := []Value{value}
		if value.Kind().IsList() {
			candidates = value.Elements()
		}
		for _, candidate := range candidates {
			if !allowed(c.AllowedValues, candidate) {
				return &ConstraintError{VariableID: v.ID, Reason: fmt.Sprintf("%s is not an allowed value", candidate)}
			}
		}
	}
	return nil
}

func allowed(set []Value, candidate Value) bool {
	for _, a := range set {
		if a.Equal(candidate) {
			return true
		}
	}
	return false
}

// ConstraintError reports a value rejected by a variable definition.
type ConstraintError struct {
	VariableID string
	Reason     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.VariableID, e.Reason)
}
