package sqlb

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	tbl := []struct {
		name string
		in   any
		want Value
		err  bool
	}{
		{name: "string", in: "abc", want: String("abc")},
		{name: "int", in: 42, want: Int(42)},
		{name: "int8", in: int8(-3), want: Int(-3)},
		{name: "uint32", in: uint32(7), want: Int(7)},
		{name: "uint64", in: uint64(9), want: Int(9)},
		{name: "float32", in: float32(0.5), want: Float(0.5)},
		{name: "float64", in: 2.25, want: Float(2.25)},
		{name: "value", in: Int(5), want: Int(5)},
		{name: "strings", in: []string{"a", "b"}, want: List(String("a"), String("b"))},
		{name: "ints", in: []int{1, 2}, want: List(Int(1), Int(2))},
		{name: "int64s", in: []int64{3}, want: List(Int(3))},
		{name: "floats", in: []float64{1.5}, want: List(Float(1.5))},
		{name: "any list", in: []any{"a", 1, 2.5}, want: List(String("a"), Int(1), Float(2.5))},
		{name: "values", in: []Value{String("x")}, want: List(String("x"))},
		{name: "nil", in: nil, err: true},
		{name: "bool", in: true, err: true},
		{name: "struct", in: struct{}{}, err: true},
		{name: "nested any list", in: []any{[]any{1}}, err: true},
		{name: "nested values", in: []Value{List(Int(1))}, err: true},
		{name: "zero value", in: Value{}, err: true},
		{name: "uint overflow", in: uint64(math.MaxUint64), err: true},
		{name: "map", in: map[string]int{"a": 1}, err: true},
		{name: "nan", in: math.NaN(), err: true},
		{name: "inf", in: math.Inf(1), err: true},
		{name: "negative inf float32", in: float32(math.Inf(-1)), err: true},
		{name: "nan in list", in: []float64{1, math.NaN()}, err: true},
		{name: "nan value", in: Float(math.NaN()), err: true},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestValuesOf(t *testing.T) {
	vv, err := ValuesOf("a", 1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []Value{String("a"), Int(1), Float(1.5)}, vv)

	_, err = ValuesOf("a", false)
	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), "value 1")
}

func TestValue_Interface(t *testing.T) {
	assert.Equal(t, "s", String("s").Interface())
	assert.Equal(t, int64(1), Int(1).Interface())
	assert.InDelta(t, 0.5, Float(0.5).Interface(), 0.0001)
	assert.Equal(t, []any{"a", int64(2)}, List(String("a"), Int(2)).Interface())
	assert.Nil(t, Value{}.Interface())
}

func TestValue_Items(t *testing.T) {
	assert.Equal(t, []Value{Int(1)}, Int(1).Items())
	assert.Equal(t, []Value{Int(1), Int(2)}, List(Int(1), Int(2)).Items())
	assert.True(t, List().IsList())
	assert.False(t, String("x").IsList())
	assert.Equal(t, "list", List().Kind().String())
	assert.Equal(t, "invalid", Value{}.Kind().String())
}

func TestSanitiseString(t *testing.T) {
	tbl := []string{"", "plain", "'", "O'Brien", "''", "a'b'c'", "no quotes, but \"double\""}
	for _, s := range tbl {
		t.Run(s, func(t *testing.T) {
			res := SanitiseString(s)
			k := strings.Count(s, "'")
			assert.Equal(t, 2*k, strings.Count(res, "'"))
			assert.Equal(t, strings.ReplaceAll(s, "'", ""), strings.ReplaceAll(res, "'", ""), "other characters unchanged")

			// inside a single-quoted literal, the literal must end only at the final quote
			lit := quote(res)
			body := lit[1 : len(lit)-1]
			assert.NotContains(t, strings.ReplaceAll(body, "''", ""), "'", "no lone quote inside %s", lit)
		})
	}
}

func TestSanitise(t *testing.T) {
	assert.Equal(t, String("it''s"), Sanitise(String("it's")))
	assert.Equal(t, Int(3), Sanitise(Int(3)))
	assert.Equal(t, Float(1.5), Sanitise(Float(1.5)))
	assert.Equal(t, List(String("a''"), Int(1)), Sanitise(List(String("a'"), Int(1))))
}

func TestValue_FloatLiteral(t *testing.T) {
	tbl := []struct {
		in   float64
		want string
	}{
		{in: 3, want: "3.0"},
		{in: -2, want: "-2.0"},
		{in: 0, want: "0.0"},
		{in: 1.5, want: "1.5"},
		{in: 1e21, want: "1e+21"},
		{in: 2.5e-8, want: "2.5e-08"},
	}
	for _, tt := range tbl {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.in).literal(SanitiseString))
		})
	}
}
