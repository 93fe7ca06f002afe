/*
Package condition evaluates, validates and renders narrative condition trees.

An Engine is stateless apart from an optional short-lived cache; every call
receives the variable definitions and the value snapshot it works on. Faults
such as references to undefined variables never escape as panics or errors:
Evaluate reports them through Result.Success and Validate accumulates every
problem of the tree in one pass.

	eng := condition.New()
	res := eng.Evaluate(cond, condition.Index(vars), values)
	if res.Success && res.Result {
		// show the choice
	}

Compound conditions with the "not" logical operator negate only their first
child. Existing projects rely on that behavior.
*/
package condition
