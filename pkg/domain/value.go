package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which member of the value union is populated.
// It doubles as the declared type of a Variable.
type Kind string

const (
	KindString     Kind = "string"
	KindNumber     Kind = "number"
	KindBoolean    Kind = "boolean"
	KindStringList Kind = "string[]"
	KindNumberList Kind = "number[]"
)

// Valid reports whether k is one of the five supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindStringList, KindNumberList:
		return true
	}
	return false
}

// IsList reports whether k is an array kind.
func (k Kind) IsList() bool {
	return k == KindStringList || k == KindNumberList
}

// Elem returns the element kind of a list kind, or k itself for scalars.
func (k Kind) Elem() Kind {
	switch k {
	case KindStringList:
		return KindString
	case KindNumberList:
		return KindNumber
	}
	return k
}

// Value is the tagged union of everything a narrative variable can hold.
// The zero Value has no kind and represents "no value".
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	strs []string
	nums []float64
}

// String builds a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Strings builds a string list value. The slice is copied.
func Strings(items ...string) Value {
	return Value{kind: KindStringList, strs: append([]string{}, items...)}
}

// Numbers builds a numeric list value. The slice is copied.
func Numbers(items ...float64) Value {
	return Value{kind: KindNumberList, nums: append([]float64{}, items...)}
}

// ValueOf converts a loosely typed Go value (as produced by JSON or YAML
// decoders) into a Value.
func ValueOf(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v.Clone(), nil
	case *Value:
		if v == nil {
			return Value{}, fmt.Errorf("nil value")
		}
		return v.Clone(), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float32:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return Number(n), nil
	case []string:
		return Strings(v...), nil
	case []float64:
		return Numbers(v...), nil
	case []int:
		nums := make([]float64, len(v))
		for i, n := range v {
			nums[i] = float64(n)
		}
		return Numbers(nums...), nil
	case []any:
		return listOf(v)
	case nil:
		return Value{}, fmt.Errorf("null is not a valid value")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

func listOf(items []any) (Value, error) {
	if len(items) == 0 {
		return Strings(), nil
	}
	first, err := ValueOf(items[0])
	if err != nil {
		return Value{}, fmt.Errorf("element 0: %w", err)
	}
	switch first.kind {
	case KindString:
		out := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("element %d: expected string, got %T", i, item)
			}
			out[i] = s
		}
		return Strings(out...), nil
	case KindNumber:
		out := make([]float64, len(items))
		for i, item := range items {
			n, err := ValueOf(item)
			if err != nil || n.kind != KindNumber {
				return Value{}, fmt.Errorf("element %d: expected number, got %T", i, item)
			}
			out[i] = n.num
		}
		return Numbers(out...), nil
	}
	return Value{}, fmt.Errorf("lists may only hold strings or numbers, got %s", first.kind)
}

// Kind returns the populated member of the union.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v carries no value at all.
func (v Value) IsZero() bool { return v.kind == "" }

// Str returns the string member. It is empty for other kinds.
func (v Value) Str() string { return v.str }

// Num returns the numeric member. It is 0 for other kinds.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean member. It is false for other kinds.
func (v Value) Bool() bool { return v.b }

// StringList returns a copy of the string list member, never nil.
func (v Value) StringList() []string { return append([]string{}, v.strs...) }

// NumberList returns a copy of the numeric list member, never nil.
func (v Value) NumberList() []float64 { return append([]float64{}, v.nums...) }

// Finite reports whether every number in v is neither NaN nor infinite.
// Non-numeric values are always finite.
func (v Value) Finite() bool {
	switch v.kind {
	case KindNumber:
		return !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case KindNumberList:
		for _, n := range v.nums {
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return false
			}
		}
	}
	return true
}

// Len returns the number of elements of a list value, and 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindStringList:
		return len(v.strs)
	case KindNumberList:
		return len(v.nums)
	}
	return 0
}

// Elements returns the list members as individual scalar values.
func (v Value) Elements() []Value {
	switch v.kind {
	case KindStringList:
		out := make([]Value, len(v.strs))
		for i, s := range v.strs {
			out[i] = String(s)
		}
		return out
	case KindNumberList:
		out := make([]Value, len(v.nums))
		for i, n := range v.nums {
			out[i] = Number(n)
		}
		return out
	}
	return nil
}

// Equal is structural equality: kinds must match, lists compare by length
// and then element by element.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	case KindStringList:
		return slices.Equal(v.strs, o.strs)
	case KindNumberList:
		return slices.Equal(v.nums, o.nums)
	}
	return true
}

// Clone returns a deep copy that shares no backing arrays with v.
func (v Value) Clone() Value {
	c := v
	if v.strs != nil {
		c.strs = append([]string{}, v.strs...)
	}
	if v.nums != nil {
		c.nums = append([]float64{}, v.nums...)
	}
	return c
}

// With returns a new list value with item appended. The receiver is not modified.
func (v Value) With(item Value) (Value, bool) {
	switch {
	case v.kind == KindStringList && item.kind == KindString:
		return Strings(append(v.StringList(), item.str)...), true
	case v.kind == KindNumberList && item.kind == KindNumber:
		return Numbers(append(v.NumberList(), item.num)...), true
	}
	return Value{}, false
}

// Without returns a new list value with every element equal to item removed.
func (v Value) Without(item Value) (Value, bool) {
	switch {
	case v.kind == KindStringList && item.kind == KindString:
		out := make([]string, 0, len(v.strs))
		for _, s := range v.strs {
			if s != item.str {
				out = append(out, s)
			}
		}
		return Strings(out...), true
	case v.kind == KindNumberList && item.kind == KindNumber:
		out := make([]float64, 0, len(v.nums))
		for _, n := range v.nums {
			if n != item.num {
				out = append(out, n)
			}
		}
		return Numbers(out...), true
	}
	return Value{}, false
}

// As reinterprets v as kind k when that is lossless: same kind, or an empty
// list of the other list kind.
func (v Value) As(k Kind) (Value, bool) {
	if v.kind == k {
		return v, true
	}
	if v.kind.IsList() && k.IsList() && v.Len() == 0 {
		if k == KindNumberList {
			return Numbers(), true
		}
		return Strings(), true
	}
	return Value{}, false
}

// String renders the value the way string operators see it: numbers in
// shortest form, booleans as true/false and lists comma-joined.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindStringList:
		return strings.Join(v.strs, ",")
	case KindNumberList:
		parts := make([]string, len(v.nums))
		for i, n := range v.nums {
			parts[i] = formatNumber(n)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Interface returns the plain Go representation (string, float64, bool,
// []string or []float64).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindStringList:
		return v.StringList()
	case KindNumberList:
		return v.NumberList()
	}
	return nil
}

// MarshalJSON encodes the value as its plain JSON literal.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindStringList, KindNumberList:
		if v.Len() == 0 {
			return []byte("[]"), nil
		}
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a plain JSON literal. Empty arrays decode as string
// lists; callers that know the declared type normalize them with As.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ValueOf(normalizeNumbers(raw))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func normalizeNumbers(raw any) any {
	switch t := raw.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
	}
	return raw
}

// MarshalYAML lets yaml.v3 emit the plain representation.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}
