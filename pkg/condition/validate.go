package condition

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// IssueCode classifies a validation finding.
type IssueCode string

const (
	// Errors
	IssueMissingVariable  IssueCode = "missing_variable"
	IssueInvalidOperator  IssueCode = "invalid_operator"
	IssueTypeMismatch     IssueCode = "type_mismatch"
	IssueInvalidCondition IssueCode = "invalid_condition"

	// Warnings
	IssueRedundantCondition IssueCode = "redundant_condition"
	IssueComputedVariable   IssueCode = "computed_variable"
	IssueIgnoredConditions  IssueCode = "ignored_conditions"
)

// Issue is one validation finding. Path locates the node in the tree, e.g.
// "conditions[1].condition".
type Issue struct {
	Code       IssueCode
	Message    string
	VariableID string
	Path       string
}

// ValidationResult accumulates every error and warning of a tree.
type ValidationResult struct {
	IsValid  bool
	Errors   []Issue
	Warnings []Issue
}

// Err converts the errors (not the warnings) into a schema.AggregateError,
// or nil when the condition is valid.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, issue := range r.Errors {
		key := issue.Path
		if key == "" {
			key = "condition"
		}
		errs[i] = &schema.ValidationError{Key: key, Reason: fmt.Sprintf("%s: %s", issue.Code, issue.Message)}
	}
	return &schema.AggregateError{Errors: errs}
}

// Validate checks c against the variable definitions without evaluating it.
// It never stops at the first problem.
func (e *Engine) Validate(c domain.Condition, defs map[string]domain.Variable) ValidationResult {
	v := &validation{defs: defs}
	v.walk(c, "")
	return ValidationResult{
		IsValid:  len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

type validation struct {
	defs     map[string]domain.Variable
	errors   []Issue
	warnings []Issue
}

func (v *validation) fail(code IssueCode, path, varID, format string, args ...any) {
	v.errors = append(v.errors, Issue{Code: code, Path: path, VariableID: varID, Message: fmt.Sprintf(format, args...)})
}

func (v *validation) warn(code IssueCode, path, varID, format string, args ...any) {
	v.warnings = append(v.warnings, Issue{Code: code, Path: path, VariableID: varID, Message: fmt.Sprintf(format, args...)})
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func (v *validation) walk(c domain.Condition, path string) {
	switch t := c.(type) {
	case *domain.SimpleCondition:
		v.simple(t, path)
	case *domain.CompoundCondition:
		switch t.LogicalOp {
		case domain.LogicalAnd, domain.LogicalOr, domain.LogicalNot:
		default:
			v.fail(IssueInvalidCondition, path, "", "unknown logical operator %q", t.LogicalOp)
		}
		if len(t.Conditions) == 0 {
			v.warn(IssueRedundantCondition, path, "", "compound condition has no sub-conditions")
			if t.LogicalOp == domain.LogicalNot {
				v.fail(IssueInvalidCondition, path, "", "not requires a sub-condition")
			}
		}
		if t.LogicalOp == domain.LogicalNot && len(t.Conditions) > 1 {
			v.warn(IssueIgnoredConditions, path, "", "not only negates its first sub-condition; %d ignored", len(t.Conditions)-1)
		}
		for i, child := range t.Conditions {
			v.walk(child, join(path, fmt.Sprintf("conditions[%d]", i)))
		}
	case *domain.NotCondition:
		if t.Condition == nil {
			v.fail(IssueInvalidCondition, path, "", "not requires a condition")
			return
		}
		v.walk(t.Condition, join(path, "condition"))
	default:
		v.fail(IssueInvalidCondition, path, "", "unsupported condition %T", c)
	}
}

func (v *validation) simple(c *domain.SimpleCondition, path string) {
	def, ok := v.defs[c.VariableID]
	if !ok {
		v.fail(IssueMissingVariable, path, c.VariableID, "variable %q is not defined", c.VariableID)
		return
	}
	if def.Computed {
		v.warn(IssueComputedVariable, path, c.VariableID,
			"variable %q is computed; its expression is not evaluated and the default value is used", c.VariableID)
	}

	if !operatorAllowed(c.Operator, def.Type) {
		if !knownOperator(c.Operator) {
			v.fail(IssueInvalidOperator, path, c.VariableID, "unknown operator %q", c.Operator)
		} else {
			v.fail(IssueInvalidOperator, path, c.VariableID, "operator %q cannot be used with %s variable %q", c.Operator, def.Type, c.VariableID)
		}
		return
	}

	if c.Operator.Unary() {
		return
	}
	if c.Value.IsZero() {
		v.fail(IssueTypeMismatch, path, c.VariableID, "operator %q requires a comparison value", c.Operator)
		return
	}

	target := def.Type
	if (c.Operator == domain.OpContains || c.Operator == domain.OpNotContains) && def.Type.IsList() {
		target = def.Type.Elem()
	}
	if !compatible(c.Value, target) {
		v.fail(IssueTypeMismatch, path, c.VariableID, "value %s (%s) is not compatible with %s", c.Value, c.Value.Kind(), target)
	}
}

func knownOperator(op domain.Operator) bool {
	switch op {
	case domain.OpEquals, domain.OpNotEquals,
		domain.OpGreaterThan, domain.OpLessThan, domain.OpGreaterEqual, domain.OpLessEqual,
		domain.OpContains, domain.OpNotContains, domain.OpStartsWith, domain.OpEndsWith,
		domain.OpIsEmpty, domain.OpIsNotEmpty, domain.OpIsTrue, domain.OpIsFalse:
		return true
	}
	return false
}

// operatorAllowed encodes which operators apply to which variable types.
func operatorAllowed(op domain.Operator, t domain.Kind) bool {
	switch op {
	case domain.OpGreaterThan, domain.OpLessThan, domain.OpGreaterEqual, domain.OpLessEqual:
		return t == domain.KindNumber
	case domain.OpStartsWith, domain.OpEndsWith:
		return t == domain.KindString
	case domain.OpContains, domain.OpNotContains:
		return t == domain.KindString || t.IsList()
	case domain.OpEquals, domain.OpNotEquals,
		domain.OpIsEmpty, domain.OpIsNotEmpty, domain.OpIsTrue, domain.OpIsFalse:
		return true
	}
	return false
}

// compatible accepts an exact kind match or number/string cross-coercion.
func compatible(value domain.Value, target domain.Kind) bool {
	if _, ok := value.As(target); ok {
		return true
	}
	k := value.Kind()
	return (k == domain.KindNumber && target == domain.KindString) ||
		(k == domain.KindString && target == domain.KindNumber)
}
