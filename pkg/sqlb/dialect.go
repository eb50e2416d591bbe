package sqlb

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect defines identifier quoting, literal escaping and placeholder style of a database
type Dialect interface {
	Name() string
	Quote(ident string) string
	Escape(s string) string
	Placeholder(n int) string
}

// supported dialects
var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
)

// DialectFor returns dialect for the database type, as detected from connection string
func DialectFor(dbType string) (Dialect, error) {
	switch dbType {
	case "sqlite":
		return SQLite, nil
	case "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string              { return "sqlite" }
func (sqliteDialect) Quote(ident string) string { return "[" + ident + "]" }
func (sqliteDialect) Escape(s string) string    { return SanitiseString(s) }
func (sqliteDialect) Placeholder(int) string    { return "?" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }
func (postgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
func (postgresDialect) Escape(s string) string   { return SanitiseString(s) }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Escape doubles backslashes too, mysql treats them as escape characters in literals by default
func (mysqlDialect) Escape(s string) string {
	return SanitiseString(strings.ReplaceAll(s, `\`, `\\`))
}
func (mysqlDialect) Placeholder(int) string { return "?" }
