package table

import (
	"context"
	"fmt"

	"github.com/go-pkgz/stringutils"

	"github.com/umputun/tablecon/pkg/shape"
	"github.com/umputun/tablecon/pkg/sqlb"
)

// Row is a record to insert. Values is the positional form, in the natural column order of the table,
// Fields is the named form. Only one of them can be set.
type Row struct {
	Values []sqlb.Value
	Fields sqlb.Fields
}

// Query defines a filtered select
type Query struct {
	Where      sqlb.Filter // conditions, empty selects all rows
	Fields     []string    // fields to return, "*" expands to all table columns; empty is "*"
	Shape      shape.Shape // result layout, empty is shape.Columns
	Join       sqlb.Join   // keyword between predicates, empty is sqlb.And
	NoDistinct bool        // don't add DISTINCT
}

// Insert adds a row to the current table. Named fields are mapped with the field map first.
func (c *Conn) Insert(ctx context.Context, row Row) error {
	if c.table == "" {
		return ErrNoTable
	}
	if len(row.Values) > 0 && len(row.Fields) > 0 {
		return ErrAmbiguousInsert
	}

	var st sqlb.Statement
	var err error
	if len(row.Values) > 0 {
		st, err = c.builder.InsertValues(c.table, row.Values)
	} else {
		st, err = c.builder.Insert(c.table, row.Fields.Rename(c.fields.Name))
	}
	if err != nil {
		return fmt.Errorf("can't make insert into %s: %w", c.table, err)
	}

	if err = c.Execute(ctx, st); err != nil {
		return fmt.Errorf("can't insert into %s: %w", c.table, err)
	}
	return nil
}

// Filter selects rows of the current table matching the query and returns them in the requested shape.
// Result keys are the requested field names as given by caller, fields expanded from "*" keyed by column names.
func (c *Conn) Filter(ctx context.Context, q Query) (shape.Result, error) {
	if c.table == "" {
		return shape.Result{}, ErrNoTable
	}
	sh, err := shape.Parse(string(q.Shape))
	if err != nil {
		return shape.Result{}, err
	}

	keys, cols := q.Fields, c.fields.Names(q.Fields)
	if len(keys) == 0 {
		keys, cols = []string{sqlb.Wildcard}, []string{sqlb.Wildcard}
	}
	if keys, cols, err = c.resolveFields(ctx, keys, cols); err != nil {
		return shape.Result{}, err
	}

	st, err := c.builder.Select(c.table, cols, q.Where.Rename(c.fields.Name), q.Join, !q.NoDistinct)
	if err != nil {
		return shape.Result{}, fmt.Errorf("can't make select from %s: %w", c.table, err)
	}
	rows, err := c.Select(ctx, st)
	if err != nil {
		return shape.Result{}, fmt.Errorf("can't filter %s: %w", c.table, err)
	}
	return shape.Reshape(shape.Raw{Fields: keys, Rows: rows}, sh)
}

// resolveFields replaces "*" with table columns, at the position of "*". Explicit fields are kept as given,
// expanded columns skip those already requested explicitly or by an earlier "*".
// Table columns are loaded only if "*" requested.
func (c *Conn) resolveFields(ctx context.Context, keys, cols []string) (resKeys, resCols []string, err error) {
	if !stringutils.Contains(sqlb.Wildcard, cols) {
		return keys, cols, nil
	}
	tableCols, err := c.ColumnNames(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("can't expand %q: %w", sqlb.Wildcard, err)
	}

	seen := make([]string, 0, len(cols)+len(tableCols))
	for _, col := range cols {
		if col != sqlb.Wildcard {
			seen = append(seen, col)
		}
	}
	for i, col := range cols {
		if col != sqlb.Wildcard {
			resKeys, resCols = append(resKeys, keys[i]), append(resCols, col)
			continue
		}
		for _, tc := range tableCols {
			if stringutils.Contains(tc, seen) {
				continue
			}
			seen = append(seen, tc)
			resKeys, resCols = append(resKeys, tc), append(resCols, tc)
		}
	}
	return resKeys, resCols, nil
}
