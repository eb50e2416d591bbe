package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/umputun/tablecon/pkg/fieldmap"
	"github.com/umputun/tablecon/pkg/shape"
	"github.com/umputun/tablecon/pkg/sqlb"
	"github.com/umputun/tablecon/pkg/table"
)

type options struct {
	Conn    string `short:"c" long:"conn" env:"TABLECON_CONN" default:"tablecon.db" description:"database connection string"`
	Table   string `short:"t" long:"table" env:"TABLECON_TABLE" description:"table name"`
	MapFile string `short:"m" long:"map" env:"TABLECON_MAP" description:"field map file, yaml or toml"`
	Literal bool   `long:"literal" description:"execute statements with inlined values instead of bound parameters"`
	Format  string `long:"format" env:"TABLECON_FORMAT" description:"output format" choice:"json" choice:"yaml" default:"json"`
	Dbg     bool   `long:"dbg" description:"debug mode, shows executed statements"`

	TablesCmd struct{} `command:"tables" description:"list tables of the database"`

	ColumnsCmd struct{} `command:"columns" description:"show columns of the table"`

	InsertCmd struct {
		Positional     bool `long:"positional" description:"values given in table column order, without field names"`
		PositionalArgs struct {
			Values []string `positional-arg-name:"field=value" required:"1" description:"values to insert"`
		} `positional-args:"yes"`
	} `command:"insert" description:"insert a row into the table"`

	FilterCmd struct {
		Fields         []string `short:"f" long:"field" default:"*" description:"fields to return, * for all columns"`
		Shape          string   `short:"s" long:"shape" default:"columns" description:"result shape: columns, rows or rowdict"`
		Join           string   `short:"j" long:"join" default:"AND" description:"keyword joining filters: AND, OR, AND NOT, OR NOT"`
		NoDistinct     bool     `long:"no-distinct" description:"return duplicate rows"`
		PositionalArgs struct {
			Filters []string `positional-arg-name:"field=value" description:"filters, repeated field matches any of values"`
		} `positional-args:"yes"`
	} `command:"filter" description:"select rows of the table"`
}

var revision = "latest"

var exitFunc = os.Exit

func main() {
	fmt.Fprintf(os.Stderr, "tablecon %s\n", revision)

	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		exitFunc(1) // can be redefined in tests
		return
	}
	setupLog(opts.Dbg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, p, opts); err != nil {
		log.Printf("[WARN] %v", err)
		exitFunc(1)
	}
}

func run(ctx context.Context, p *flags.Parser, opts options) error {
	if p.Active == nil {
		return errors.New("no command given")
	}

	conn, err := table.Open(ctx, opts.Conn, opts.Table, table.Opts{Debug: opts.Dbg, Literal: opts.Literal})
	if err != nil {
		return fmt.Errorf("can't open %s: %w", opts.Conn, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()

	if opts.MapFile != "" {
		fm, err := fieldmap.Load(opts.MapFile)
		if err != nil {
			return fmt.Errorf("can't load field map: %w", err)
		}
		conn.DefineFieldMap(fm)
	}

	// list tables
	if p.Command.Find("tables") == p.Active {
		log.Printf("[DEBUG] tables command")
		tables, err := conn.Tables(ctx)
		if err != nil {
			return err
		}
		return printData(os.Stdout, opts.Format, tables)
	}

	// show columns
	if p.Command.Find("columns") == p.Active {
		log.Printf("[DEBUG] columns command, table=%s", opts.Table)
		cols, err := conn.Columns(ctx)
		if err != nil {
			return err
		}
		return printData(os.Stdout, opts.Format, cols)
	}

	// insert row
	if p.Command.Find("insert") == p.Active {
		log.Printf("[DEBUG] insert command, table=%s, values=%v", opts.Table, opts.InsertCmd.PositionalArgs.Values)
		var row table.Row
		if opts.InsertCmd.Positional {
			for _, v := range opts.InsertCmd.PositionalArgs.Values {
				row.Values = append(row.Values, parseValue(v))
			}
		} else {
			if row.Fields, err = parsePairs(opts.InsertCmd.PositionalArgs.Values); err != nil {
				return err
			}
		}
		if err := conn.Insert(ctx, row); err != nil {
			return err
		}
		log.Printf("[INFO] inserted into %s", opts.Table)
		return nil
	}

	// filter rows
	if p.Command.Find("filter") == p.Active {
		log.Printf("[DEBUG] filter command, table=%s, filters=%v", opts.Table, opts.FilterCmd.PositionalArgs.Filters)
		where, err := parseFilter(opts.FilterCmd.PositionalArgs.Filters)
		if err != nil {
			return err
		}
		res, err := conn.Filter(ctx, table.Query{
			Where:      where,
			Fields:     opts.FilterCmd.Fields,
			Shape:      shape.Shape(opts.FilterCmd.Shape),
			Join:       sqlb.Join(opts.FilterCmd.Join),
			NoDistinct: opts.FilterCmd.NoDistinct,
		})
		if err != nil {
			return err
		}
		return printData(os.Stdout, opts.Format, res.Data())
	}

	return fmt.Errorf("unknown command %q", p.Active.Name)
}

// parsePairs makes fields from field=value strings, order kept
func parsePairs(args []string) (sqlb.Fields, error) {
	res := make(sqlb.Fields, 0, len(args))
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid %q, expected field=value", a)
		}
		res = append(res, sqlb.Field{Name: strings.TrimSpace(name), Value: parseValue(val)})
	}
	return res, nil
}

// parseFilter makes filter from field=value strings. Values of a repeated field collected to a list.
func parseFilter(args []string) (sqlb.Filter, error) {
	pairs, err := parsePairs(args)
	if err != nil {
		return nil, err
	}
	res := sqlb.Filter{}
	idx := map[string]int{}
	for _, p := range pairs {
		i, ok := idx[p.Name]
		if !ok {
			idx[p.Name] = len(res)
			res = append(res, sqlb.Cond{Field: p.Name, Value: p.Value})
			continue
		}
		items := append([]sqlb.Value{}, res[i].Value.Items()...)
		res[i].Value = sqlb.List(append(items, p.Value)...)
	}
	return res, nil
}

// parseValue makes value from a command line text. Integers and floats are numbers,
// everything else is a string. Text in single or double quotes is always a string, quotes removed.
func parseValue(s string) sqlb.Value {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return sqlb.String(s[1 : len(s)-1])
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sqlb.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return sqlb.Float(f)
	}
	return sqlb.String(s)
}

// printData writes data as json or yaml. Json is indented for terminal only.
func printData(w io.Writer, format string, data any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("can't encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("can't encode json: %w", err)
	}
	return nil
}

// setupLog sends all logs to stderr, stdout is left for command output.
// Levels colorized only if stderr is a terminal.
func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr), lgr.LevelBraces}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.Msec, lgr.CallerFunc, lgr.StackTraceOnError)
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		logOpts = append(logOpts, lgr.Map(lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		}))
	}

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
