// Package shape converts raw query rows into column-oriented, row-oriented or row-as-map layouts.
package shape

import (
	"errors"
	"fmt"
)

// ErrInvalidShape returned for unknown shape tokens
var ErrInvalidShape = errors.New("invalid shape")

// Shape is a requested layout of the result
type Shape string

// enum of supported shapes
const (
	Columns Shape = "columns" // field -> column values
	Rows    Shape = "rows"    // list of rows, each a list of values
	RowDict Shape = "rowdict" // list of rows, each a map of field -> value
)

// Parse makes Shape from the token, empty token is Columns
func Parse(s string) (Shape, error) {
	switch Shape(s) {
	case "":
		return Columns, nil
	case Columns, Rows, RowDict:
		return Shape(s), nil
	default:
		return "", fmt.Errorf("%w %q, must be one of %q, %q or %q", ErrInvalidShape, s, Columns, Rows, RowDict)
	}
}

// Raw is a query result as returned by the database, every row ordered as Fields
type Raw struct {
	Fields []string
	Rows   [][]any
}

// Result is a shaped query result. Only the member matching Shape is populated.
type Result struct {
	Shape   Shape
	Columns map[string][]any
	Rows    [][]any
	Dicts   []map[string]any
}

// Data returns populated member of the result
func (r Result) Data() any {
	switch r.Shape {
	case Rows:
		return r.Rows
	case RowDict:
		return r.Dicts
	default:
		return r.Columns
	}
}

// Reshape converts raw rows to the requested shape
func Reshape(raw Raw, sh Shape) (Result, error) {
	sh, err := Parse(string(sh))
	if err != nil {
		return Result{}, err
	}
	switch sh {
	case Rows:
		return Result{Shape: Rows, Rows: rows(raw)}, nil
	case RowDict:
		return Result{Shape: RowDict, Dicts: dicts(raw)}, nil
	default:
		return Result{Shape: Columns, Columns: columns(raw)}, nil
	}
}

// columns transposes rows, every field gets a non-nil slice even with no rows
func columns(raw Raw) map[string][]any {
	res := make(map[string][]any, len(raw.Fields))
	for i, f := range raw.Fields {
		col := make([]any, 0, len(raw.Rows))
		for _, row := range raw.Rows {
			if i < len(row) {
				col = append(col, row[i])
			}
		}
		res[f] = col
	}
	return res
}

func rows(raw Raw) [][]any {
	res := make([][]any, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		res = append(res, append([]any{}, row...))
	}
	return res
}

func dicts(raw Raw) []map[string]any {
	res := make([]map[string]any, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		rec := make(map[string]any, len(raw.Fields))
		for i, f := range raw.Fields {
			if i < len(row) {
				rec[f] = row[i]
			}
		}
		res = append(res, rec)
	}
	return res
}
