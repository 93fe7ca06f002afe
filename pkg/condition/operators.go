package condition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// compare applies op to the resolved variable value and the literal.
func compare(op domain.Operator, actual, expected domain.Value) (bool, error) {
	switch op {
	case domain.OpEquals:
		return actual.Equal(expected), nil
	case domain.OpNotEquals:
		return !actual.Equal(expected), nil
	case domain.OpGreaterThan:
		return ToNumber(actual) > ToNumber(expected), nil
	case domain.OpLessThan:
		return ToNumber(actual) < ToNumber(expected), nil
	case domain.OpGreaterEqual:
		return ToNumber(actual) >= ToNumber(expected), nil
	case domain.OpLessEqual:
		return ToNumber(actual) <= ToNumber(expected), nil
	case domain.OpContains:
		return contains(actual, expected), nil
	case domain.OpNotContains:
		return !contains(actual, expected), nil
	case domain.OpStartsWith:
		return strings.HasPrefix(actual.String(), expected.String()), nil
	case domain.OpEndsWith:
		return strings.HasSuffix(actual.String(), expected.String()), nil
	case domain.OpIsEmpty:
		return IsEmpty(actual), nil
	case domain.OpIsNotEmpty:
		return !IsEmpty(actual), nil
	case domain.OpIsTrue:
		return Truthy(actual), nil
	case domain.OpIsFalse:
		return !Truthy(actual), nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

// ToNumber coerces a value for ordering comparisons: booleans become 0 or 1,
// numeric strings are parsed, lists count their elements and anything else
// is 0.
func ToNumber(v domain.Value) float64 {
	switch v.Kind() {
	case domain.KindNumber:
		return v.Num()
	case domain.KindBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	case domain.KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil || math.IsNaN(n) {
			return 0
		}
		return n
	case domain.KindStringList, domain.KindNumberList:
		return float64(v.Len())
	}
	return 0
}

// IsEmpty treats empty strings and lists, false and zero as empty.
func IsEmpty(v domain.Value) bool {
	switch v.Kind() {
	case domain.KindString:
		return v.Str() == ""
	case domain.KindNumber:
		return v.Num() == 0
	case domain.KindBoolean:
		return !v.Bool()
	case domain.KindStringList, domain.KindNumberList:
		return v.Len() == 0
	}
	return true
}

// Truthy coerces a value to a boolean. Lists are true when non-empty.
func Truthy(v domain.Value) bool {
	switch v.Kind() {
	case domain.KindString:
		return v.Str() != ""
	case domain.KindNumber:
		return v.Num() != 0 && !math.IsNaN(v.Num())
	case domain.KindBoolean:
		return v.Bool()
	case domain.KindStringList, domain.KindNumberList:
		return v.Len() > 0
	}
	return false
}

// contains tests list membership, or substring containment on the
// stringified value for scalars. Membership accepts a number written as a
// string and vice versa.
func contains(actual, expected domain.Value) bool {
	if !actual.Kind().IsList() {
		return strings.Contains(actual.String(), expected.String())
	}
	for _, elem := range actual.Elements() {
		if elem.Equal(expected) {
			return true
		}
		if !expected.Kind().IsList() && !expected.IsZero() && elem.Kind() != expected.Kind() &&
			elem.String() == expected.String() {
			return true
		}
	}
	return false
}
