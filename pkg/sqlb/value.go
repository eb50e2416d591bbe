// Package sqlb builds INSERT and SELECT statements for a single table.
// Statements keep values apart from the text, so the same statement can be
// executed with bound parameters or rendered as plain text with escaped literals.
package sqlb

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedType returned for values which are not a string, a number or a list of those.
var ErrUnsupportedType = errors.New("unsupported value type")

// Kind is a kind of Value
type Kind int

// enum of all value kinds, zero Kind is invalid
const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a tagged value used in filters and inserts: string, integer, float or a list of scalars.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	list []Value
}

// String makes a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int makes an integer value
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float makes a floating-point value
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// List makes a list value. Elements expected to be scalars, nested lists rejected when the statement is built.
func List(vals ...Value) Value { return Value{kind: KindList, list: vals} }

// Kind returns the kind of the value, zero for uninitialized Value
func (v Value) Kind() Kind { return v.kind }

// IsList reports whether the value is a list
func (v Value) IsList() bool { return v.kind == KindList }

// Items returns list elements, or the value itself as a single element for scalars
func (v Value) Items() []Value {
	if v.kind == KindList {
		return v.list
	}
	return []Value{v}
}

// Interface returns the underlying go value: string, int64, float64 or []any for lists
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindList:
		res := make([]any, len(v.list))
		for i, el := range v.list {
			res[i] = el.Interface()
		}
		return res
	default:
		return nil
	}
}

// checkScalar returns ErrUnsupportedType for lists and uninitialized values
func (v Value) checkScalar() error {
	switch v.kind {
	case KindString, KindInt:
		return nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return fmt.Errorf("%w: %v has no sql literal", ErrUnsupportedType, v.flt)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s where scalar expected", ErrUnsupportedType, v.kind)
	}
}

// check validates scalar or list of scalars
func (v Value) check() error {
	if v.kind != KindList {
		return v.checkScalar()
	}
	for i, el := range v.list {
		if err := el.checkScalar(); err != nil {
			return fmt.Errorf("list element %d: %w", i, err)
		}
	}
	return nil
}

// ValueOf converts a go value to Value. Supported are strings, all integer and float types,
// Value itself and slices of those. Everything else, including nil and bool, is ErrUnsupportedType.
func ValueOf(in any) (Value, error) {
	switch x := in.(type) {
	case []string:
		res := make([]Value, len(x))
		for i, s := range x {
			res[i] = String(s)
		}
		return List(res...), nil
	case []int:
		res := make([]Value, len(x))
		for i, n := range x {
			res[i] = Int(int64(n))
		}
		return List(res...), nil
	case []int64:
		res := make([]Value, len(x))
		for i, n := range x {
			res[i] = Int(n)
		}
		return List(res...), nil
	case []float64:
		res := make([]Value, len(x))
		for i, f := range x {
			v, err := floatValue(f)
			if err != nil {
				return Value{}, fmt.Errorf("list element %d: %w", i, err)
			}
			res[i] = v
		}
		return List(res...), nil
	case []Value:
		v := List(x...)
		return v, v.check()
	case []any:
		res := make([]Value, len(x))
		for i, el := range x {
			v, err := scalarOf(el)
			if err != nil {
				return Value{}, fmt.Errorf("list element %d: %w", i, err)
			}
			res[i] = v
		}
		return List(res...), nil
	}
	return scalarOf(in)
}

// ValuesOf converts all inputs with ValueOf
func ValuesOf(in ...any) ([]Value, error) {
	res := make([]Value, len(in))
	for i, el := range in {
		v, err := ValueOf(el)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		res[i] = v
	}
	return res, nil
}

func scalarOf(in any) (Value, error) {
	switch x := in.(type) {
	case Value:
		return x, x.checkScalar()
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return uintValue(x)
	case float32:
		return floatValue(float64(x))
	case float64:
		return floatValue(x)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, in)
	}
}

func uintValue(n uint64) (Value, error) {
	if n > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, n)
	}
	return Int(int64(n)), nil
}

func floatValue(f float64) (Value, error) {
	v := Float(f)
	if err := v.checkScalar(); err != nil {
		return Value{}, err
	}
	return v, nil
}

// literal renders scalar value as sql literal, strings are escaped and single-quoted.
// caller guarantees the value is a scalar.
func (v Value) literal(escape func(string) string) string {
	switch v.kind {
	case KindString:
		return quote(escape(v.str))
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		res := strconv.FormatFloat(v.flt, 'g', -1, 64)
		if !strings.ContainsAny(res, ".e") {
			res += ".0" // keep whole floats real, sqlite stores bare 3 as integer
		}
		return res
	default:
		return "NULL"
	}
}
