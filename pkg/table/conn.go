// Package table provides a connection bound to a single table. It maps caller field names to columns,
// builds INSERT and filtered SELECT statements and reshapes query results.
// Supported databases: sqlite, postgres, mysql.
// Conn is not safe for concurrent use of DefineFieldMap, SetTable and SetDB, callers should serialize access.
package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	_ "github.com/go-sql-driver/mysql" // mysql driver loaded here
	_ "github.com/lib/pq"              // postgres driver loaded here
	_ "modernc.org/sqlite"             // sqlite driver loaded here

	"github.com/umputun/tablecon/pkg/fieldmap"
	"github.com/umputun/tablecon/pkg/sqlb"
)

// errors returned by Conn
var (
	ErrNoTable         = errors.New("no table selected")
	ErrClosed          = errors.New("connection closed")
	ErrAmbiguousInsert = errors.New("ambiguous insert, both positional and named values given")
)

// Opts defines connection options
type Opts struct {
	Debug   bool // log every statement before execution
	Literal bool // execute statements with inlined escaped values instead of bound parameters
}

// Conn is a database connection bound to a table
type Conn struct {
	db      *sql.DB
	dbType  string
	table   string
	builder sqlb.Builder
	fields  fieldmap.Map
	opts    Opts
}

// Open makes a new Conn for the connection string and table. Database type detected from the connection string:
// postgres://... is postgres, user:pass@tcp(host)/db is mysql, everything else is a sqlite file.
// Sqlite file names without .db or .sqlite extension get .db appended.
func Open(ctx context.Context, conn, table string, opts Opts) (*Conn, error) {
	res := &Conn{table: table, opts: opts, fields: fieldmap.Map{}}
	if err := res.open(ctx, conn); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Conn) open(ctx context.Context, conn string) error {
	dbType, dsn, err := dbSource(conn)
	if err != nil {
		return fmt.Errorf("can't determine database type: %w", err)
	}
	dialect, err := sqlb.DialectFor(dbType)
	if err != nil {
		return err
	}

	if dbType == "sqlite" && dsn != ":memory:" && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)" // wait for locks held by other connections to the same file
	}
	db, err := sql.Open(dbType, dsn)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	if dbType == "sqlite" {
		db.SetMaxOpenConns(1) // single writer, also keeps :memory: database on one connection
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("can't ping %s database: %w", dbType, err)
	}
	c.db, c.dbType, c.builder = db, dbType, sqlb.Builder{Dialect: dialect}
	log.Printf("[DEBUG] opened %s database, table %q", dbType, c.table)
	return nil
}

// dbSource returns driver name and data source name for the connection string
func dbSource(conn string) (dbType, dsn string, err error) {
	switch {
	case conn == "":
		return "", "", errors.New("empty connection string")
	case strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://"):
		return "postgres", conn, nil
	case strings.Contains(conn, "@tcp("):
		return "mysql", conn, nil
	case strings.HasPrefix(conn, "file:") || conn == ":memory:":
		return "sqlite", conn, nil
	case strings.HasSuffix(conn, ".db") || strings.HasSuffix(conn, ".sqlite"):
		return "sqlite", conn, nil
	case strings.Contains(conn, "://"):
		return "", "", fmt.Errorf("unsupported database type in connection string")
	default:
		return "sqlite", conn + ".db", nil
	}
}

// Close closes the database connection. Closing already closed Conn is a no-op.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}
	return nil
}

// SetDB closes current database and opens a new one. Table and field map are kept.
func (c *Conn) SetDB(ctx context.Context, conn string) error {
	if err := c.Close(); err != nil {
		log.Printf("[WARN] %v", err)
	}
	return c.open(ctx, conn)
}

// SetTable switches the table, field map is kept
func (c *Conn) SetTable(table string) { c.table = table }

// Table returns the current table name
func (c *Conn) Table() string { return c.table }

// DBType returns database type, one of sqlite, postgres or mysql
func (c *Conn) DBType() string { return c.dbType }

// DefineFieldMap sets field name -> column name map used by Insert and Filter.
// The map is kept across SetTable and SetDB until replaced.
func (c *Conn) DefineFieldMap(m fieldmap.Map) {
	if m == nil {
		m = fieldmap.Map{}
	}
	c.fields = m
}

// FieldMap returns current field map
func (c *Conn) FieldMap() fieldmap.Map { return c.fields }

// Execute runs a statement returning no rows
func (c *Conn) Execute(ctx context.Context, st sqlb.Statement) error {
	if c.db == nil {
		return ErrClosed
	}
	query, args := c.render(st)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("can't execute %q: %w", query, err)
	}
	return nil
}

// Select runs a statement and returns all rows. Byte slices are converted to strings.
func (c *Conn) Select(ctx context.Context, st sqlb.Statement) ([][]any, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	query, args := c.render(st)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("can't query %q: %w", query, err)
	}
	defer rows.Close() // nolint

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("can't get columns: %w", err)
	}
	res := [][]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("can't scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res = append(res, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}
	return res, nil
}

// render returns query text and args to execute, logs the literal form in debug mode
func (c *Conn) render(st sqlb.Statement) (query string, args []any) {
	if c.opts.Debug {
		log.Printf("[DEBUG] %s", st.Literal())
	}
	if c.opts.Literal {
		return st.Literal(), nil
	}
	return st.SQL(), st.Args()
}
