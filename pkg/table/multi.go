package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-pkgz/stringutils"
	"github.com/go-pkgz/syncs"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/tablecon/pkg/fieldmap"
)

// errors returned by Multi
var (
	ErrNoTables     = errors.New("at least one table must be specified")
	ErrUnknownTable = errors.New("unknown table")
	ErrMemoryDB     = errors.New("in-memory database can't be shared between tables")
)

// openConcurrency limits number of connections opened in parallel by NewMulti
const openConcurrency = 4

// Multi holds one Conn per table of the same database, looked up by table name.
// The set of tables is fixed on creation.
type Multi struct {
	tables map[string]*Conn
}

// NewMulti opens a Conn for each table. Duplicate table names are ignored.
// If any of connections can't be opened, all opened ones are closed.
// Every Conn has its own connection, so ":memory:" is rejected, it would make a separate database per table.
func NewMulti(ctx context.Context, conn string, tables []string, opts Opts) (*Multi, error) {
	if conn == ":memory:" {
		return nil, ErrMemoryDB
	}
	tables = stringutils.DeDup(tables)
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	res := &Multi{tables: make(map[string]*Conn, len(tables))}
	var lock sync.Mutex
	wg := syncs.NewErrSizedGroup(openConcurrency, syncs.Context(ctx), syncs.Preemptive)
	for _, tbl := range tables {
		wg.Go(func() error {
			c, err := Open(ctx, conn, tbl, opts)
			if err != nil {
				return fmt.Errorf("can't open table %s: %w", tbl, err)
			}
			lock.Lock()
			res.tables[tbl] = c
			lock.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		if closeErr := res.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
		return nil, err
	}
	return res, nil
}

// Table returns Conn for the table
func (m *Multi) Table(name string) (*Conn, error) {
	c, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTable, name)
	}
	return c, nil
}

// Names returns all table names, sorted
func (m *Multi) Names() []string {
	res := make([]string, 0, len(m.tables))
	for name := range m.tables {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// DefineFieldMap sets the field map for all tables
func (m *Multi) DefineFieldMap(fm fieldmap.Map) {
	for _, c := range m.tables {
		c.DefineFieldMap(fm)
	}
}

// Close closes all connections, errors are collected
func (m *Multi) Close() error {
	errs := new(multierror.Error)
	for _, name := range m.Names() {
		if err := m.tables[name].Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("table %s: %w", name, err))
		}
	}
	return errs.ErrorOrNil()
}
