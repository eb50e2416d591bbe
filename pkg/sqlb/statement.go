package sqlb

import (
	"strings"
)

// Statement is a built sql statement, a list of text tokens and scalar values.
// It can be rendered with bound placeholders (SQL and Args) or as a plain text with escaped literals (Literal).
type Statement struct {
	dialect Dialect
	tokens  []token
	query   bool // statement returns rows
}

// token is either a text or a value
type token struct {
	text  string
	value *Value
}

// Raw makes a statement from the given text as is, with no values.
// query flag set for statements expected to return rows.
func Raw(text string, query bool) Statement {
	return Statement{dialect: SQLite, tokens: []token{{text: text}}, query: query}
}

// IsQuery reports whether the statement returns rows
func (s Statement) IsQuery() bool { return s.query }

// SQL renders statement text with placeholders in place of values
func (s Statement) SQL() string {
	var sb strings.Builder
	n := 0
	for _, t := range s.tokens {
		if t.value == nil {
			sb.WriteString(t.text)
			continue
		}
		n++
		sb.WriteString(s.dialect.Placeholder(n))
	}
	return sb.String()
}

// Args returns values to bind, in placeholders order
func (s Statement) Args() []any {
	res := []any{}
	for _, t := range s.tokens {
		if t.value != nil {
			res = append(res, t.value.Interface())
		}
	}
	return res
}

// Literal renders statement text with values inlined. Strings are escaped and single-quoted, numbers unquoted.
func (s Statement) Literal() string {
	var sb strings.Builder
	for _, t := range s.tokens {
		if t.value == nil {
			sb.WriteString(t.text)
			continue
		}
		sb.WriteString(t.value.literal(s.dialect.Escape))
	}
	return sb.String()
}

// String returns literal form, for logging
func (s Statement) String() string { return s.Literal() }

// fragment is a piece of statement, i.e. a single predicate or a value list
type fragment []token

func text(s string) fragment { return fragment{{text: s}} }

func value(v Value) fragment { return fragment{{value: &v}} }

func (f fragment) add(parts ...fragment) fragment {
	for _, p := range parts {
		f = append(f, p...)
	}
	return f
}

// joinFragments places sep between adjacent fragments, never before the first or after the last one
func joinFragments(frags []fragment, sep string) fragment {
	res := fragment{}
	for i, fr := range frags {
		if i > 0 {
			res = append(res, token{text: sep})
		}
		res = append(res, fr...)
	}
	return res
}
