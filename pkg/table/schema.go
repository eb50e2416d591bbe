package table

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/umputun/tablecon/pkg/sqlb"
)

// Column describes a table column
type Column struct {
	Order    int     `json:"order" yaml:"order"`
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Nullable bool    `json:"nullable" yaml:"nullable"`
	Default  *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Columns returns columns of the current table in the table order
func (c *Conn) Columns(ctx context.Context) ([]Column, error) {
	if c.table == "" {
		return nil, ErrNoTable
	}
	if c.db == nil {
		return nil, ErrClosed
	}
	if c.dbType == "sqlite" {
		return c.sqliteColumns(ctx)
	}

	q := "SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns " +
		"WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position"
	if c.dbType == "mysql" {
		q = "SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	}
	rows, err := c.db.QueryContext(ctx, q, c.table)
	if err != nil {
		return nil, fmt.Errorf("can't get columns of %s: %w", c.table, err)
	}
	defer rows.Close() // nolint

	var res []Column
	for rows.Next() {
		var col Column
		var nullable string
		var dflt sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("can't scan column of %s: %w", c.table, err)
		}
		col.Order, col.Nullable = len(res), nullable == "YES"
		if dflt.Valid {
			col.Default = &dflt.String
		}
		res = append(res, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", c.table, err)
	}
	return c.checkColumns(res)
}

func (c *Conn) sqliteColumns(ctx context.Context) ([]Column, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", sqlb.SanitiseString(c.table)))
	if err != nil {
		return nil, fmt.Errorf("can't get columns of %s: %w", c.table, err)
	}
	defer rows.Close() // nolint

	var res []Column
	for rows.Next() {
		var (
			col     Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&col.Order, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("can't scan column of %s: %w", c.table, err)
		}
		col.Nullable = notNull == 0
		if dflt.Valid {
			col.Default = &dflt.String
		}
		res = append(res, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", c.table, err)
	}
	return c.checkColumns(res)
}

func (c *Conn) checkColumns(cols []Column) ([]Column, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", c.table)
	}
	return cols, nil
}

// ColumnNames returns column names of the current table in the table order
func (c *Conn) ColumnNames(ctx context.Context) ([]string, error) {
	cols, err := c.Columns(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(cols))
	for i, col := range cols {
		res[i] = col.Name
	}
	return res, nil
}

// Tables returns names of all user tables in the database, sorted
func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	var q string
	switch c.dbType {
	case "sqlite":
		q = "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case "postgres":
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	default:
		q = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	}
	rows, err := c.Select(ctx, sqlb.Raw(q, true))
	if err != nil {
		return nil, fmt.Errorf("can't list tables: %w", err)
	}
	res := make([]string, 0, len(rows))
	for _, r := range rows {
		res = append(res, fmt.Sprintf("%v", r[0]))
	}
	return res, nil
}
