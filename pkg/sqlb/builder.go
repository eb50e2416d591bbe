package sqlb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errors returned by builder
var (
	ErrEmptyInsert = errors.New("nothing to insert")
	ErrNoColumns   = errors.New("no columns to select")
	ErrInvalidJoin = errors.New("invalid boolean join")
)

// Wildcard selects all columns of a table
const Wildcard = "*"

// Builder makes statements for the given dialect. Zero Builder uses SQLite.
// Table and column names are used as is, callers should never pass untrusted names.
type Builder struct {
	Dialect Dialect
}

// Field is a named value to insert
type Field struct {
	Name  string
	Value Value
}

// Fields is an ordered list of named values, the order is kept in generated statements
type Fields []Field

// FieldsOf makes Fields from a map, ordered by name
func FieldsOf(m map[string]any) (Fields, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make(Fields, 0, len(m))
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		res = append(res, Field{Name: k, Value: v})
	}
	return res, nil
}

// Rename returns a copy of fields with every name passed through fn
func (f Fields) Rename(fn func(string) string) Fields {
	res := make(Fields, len(f))
	for i, fld := range f {
		res[i] = Field{Name: fn(fld.Name), Value: fld.Value}
	}
	return res
}

// Join is a boolean keyword placed between filter predicates
type Join string

// enum of supported joins
const (
	And    Join = "AND"
	Or     Join = "OR"
	AndNot Join = "AND NOT"
	OrNot  Join = "OR NOT"
)

// ParseJoin makes Join from a case-insensitive keyword, empty string is And
func ParseJoin(s string) (Join, error) {
	j := Join(strings.Join(strings.Fields(strings.ToUpper(s)), " "))
	switch j {
	case "":
		return And, nil
	case And, Or, AndNot, OrNot:
		return j, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidJoin, s)
	}
}

// Cond is a filter entry, equality of a column to a scalar or to each element of a list
type Cond struct {
	Field string
	Value Value
}

// Filter is an ordered list of conditions. Empty filter selects all rows.
type Filter []Cond

// FilterOf makes Filter from a map, ordered by field name. Values converted with ValueOf.
func FilterOf(m map[string]any) (Filter, error) {
	flds, err := FieldsOf(m)
	if err != nil {
		return nil, err
	}
	res := make(Filter, len(flds))
	for i, f := range flds {
		res[i] = Cond{Field: f.Name, Value: f.Value}
	}
	return res, nil
}

// Rename returns a copy of filter with every field name passed through fn
func (f Filter) Rename(fn func(string) string) Filter {
	res := make(Filter, len(f))
	for i, c := range f {
		res[i] = Cond{Field: fn(c.Field), Value: c.Value}
	}
	return res
}

// Predicates returns number of equality predicates the filter makes, one per scalar and one per list element
func (f Filter) Predicates() int {
	n := 0
	for _, c := range f {
		n += len(c.Value.Items())
	}
	return n
}

func (b Builder) dialect() Dialect {
	if b.Dialect == nil {
		return SQLite
	}
	return b.Dialect
}

// Insert makes INSERT INTO table (cols) VALUES (vals), columns and values follow fields order
func (b Builder) Insert(table string, fields Fields) (Statement, error) {
	if len(fields) == 0 {
		return Statement{}, ErrEmptyInsert
	}
	d := b.dialect()
	cols := make([]string, len(fields))
	vals := make([]fragment, len(fields))
	for i, f := range fields {
		if err := f.Value.checkScalar(); err != nil {
			return Statement{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		cols[i] = d.Quote(f.Name)
		vals[i] = value(f.Value)
	}
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table, strings.Join(cols, ", "))
	tokens := text(head).add(joinFragments(vals, ", "), text(")"))
	return Statement{dialect: d, tokens: tokens}, nil
}

// InsertValues makes positional INSERT INTO table VALUES (vals), with no column list.
// Values should follow the natural column order of the table.
func (b Builder) InsertValues(table string, values []Value) (Statement, error) {
	if len(values) == 0 {
		return Statement{}, ErrEmptyInsert
	}
	vals := make([]fragment, len(values))
	for i, v := range values {
		if err := v.checkScalar(); err != nil {
			return Statement{}, fmt.Errorf("value %d: %w", i, err)
		}
		vals[i] = value(v)
	}
	tokens := text(fmt.Sprintf("INSERT INTO %s VALUES (", table)).add(joinFragments(vals, ", "), text(")"))
	return Statement{dialect: b.dialect(), tokens: tokens}, nil
}

// Select makes SELECT [DISTINCT] cols FROM table [WHERE ...]. Wildcard column rendered bare.
// Each filter condition makes one equality predicate per value, predicates joined with the join keyword.
func (b Builder) Select(table string, cols []string, where Filter, join Join, distinct bool) (Statement, error) {
	if len(cols) == 0 {
		return Statement{}, ErrNoColumns
	}
	join, err := ParseJoin(string(join))
	if err != nil {
		return Statement{}, err
	}
	d := b.dialect()

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = c
		if c != Wildcard {
			quoted[i] = d.Quote(c)
		}
	}

	var head strings.Builder
	head.WriteString("SELECT ")
	if distinct {
		head.WriteString("DISTINCT ")
	}
	head.WriteString(strings.Join(quoted, ", "))
	head.WriteString(" FROM ")
	head.WriteString(table)
	tokens := text(head.String())

	if len(where) == 0 {
		return Statement{dialect: d, tokens: tokens, query: true}, nil
	}

	preds := make([]fragment, 0, where.Predicates())
	for _, c := range where {
		if err := c.Value.check(); err != nil {
			return Statement{}, fmt.Errorf("filter %q: %w", c.Field, err)
		}
		for _, v := range c.Value.Items() {
			preds = append(preds, text(d.Quote(c.Field)+" = ").add(value(v)))
		}
	}
	if len(preds) == 0 { // only empty lists given
		return Statement{dialect: d, tokens: tokens, query: true}, nil
	}
	tokens = tokens.add(text(" WHERE "), joinFragments(preds, " "+string(join)+" "))
	return Statement{dialect: d, tokens: tokens, query: true}, nil
}
