package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pkgz/fileutils"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tablecon/pkg/sqlb"
	"github.com/umputun/tablecon/pkg/table"
)

func TestTablecon(t *testing.T) {
	dbFile := prepDB(t)
	mapFile := filepath.Join(t.TempDir(), "fields.yml")
	require.NoError(t, os.WriteFile(mapFile, []byte("fields:\n  \"Original name\": original_name\n  \"#\": number\n"), 0o600))
	setupLog(true)

	base := []string{"--conn", dbFile, "--table", "renames", "--map", mapFile}
	tests := []struct {
		name      string
		args      []string
		wantOut   string
		wantLog   string
		wantError bool
	}{
		{
			name:    "insert named",
			args:    append(base, "insert", "composer=Beethoven, Ludwig Van", "album=Symphony No. 5", "#=5", "Original name=sym5"),
			wantLog: "inserted into renames",
		},
		{
			name:    "insert positional",
			args:    append(base, "insert", "--positional", "Mozart", "Requiem", "k626", "626"),
			wantLog: "inserted into renames",
		},
		{
			name:      "insert bad pair",
			args:      append(base, "insert", "composer"),
			wantError: true,
		},
		{
			name:    "filter columns",
			args:    append(base, "filter", "-f", "composer", "-f", "album", "composer=Beethoven, Ludwig Van"),
			wantOut: `{"album":["Symphony No. 5"],"composer":["Beethoven, Ludwig Van"]}` + "\n",
		},
		{
			name:    "filter rows with or",
			args:    append(base, "filter", "-f", "#", "--shape", "rows", "--join", "or", "composer=Mozart", "composer=Beethoven, Ludwig Van"),
			wantOut: "[[5],[626]]\n",
		},
		{
			name:    "filter rowdict mapped",
			args:    append(base, "filter", "-f", "Original name", "-s", "rowdict", "#=626"),
			wantOut: `[{"Original name":"k626"}]` + "\n",
		},
		{
			name:    "filter quoted number is string",
			args:    append(base, "filter", "-f", "album", "Original name='k626'"),
			wantOut: `{"album":["Requiem"]}` + "\n",
		},
		{
			name:    "filter yaml",
			args:    append([]string{"--format", "yaml"}, append(base, "filter", "-f", "album", "-s", "rows", "#=5")...),
			wantOut: "- - Symphony No. 5\n",
		},
		{
			name:    "filter literal",
			args:    append([]string{"--literal", "--dbg"}, append(base, "filter", "-f", "album", "composer=Mozart")...),
			wantOut: `{"album":["Requiem"]}` + "\n",
			wantLog: "SELECT DISTINCT [album] FROM renames WHERE [composer] = 'Mozart'",
		},
		{
			name:      "filter bad shape",
			args:      append(base, "filter", "-s", "table"),
			wantError: true,
		},
		{
			name:    "tables",
			args:    []string{"--conn", dbFile, "tables"},
			wantOut: `["renames"]` + "\n",
		},
		{
			name:    "columns",
			args:    append(base, "--format", "yaml", "columns"),
			wantOut: "- order: 0\n  name: composer\n  type: TEXT\n  nullable: true\n",
		},
		{
			name:      "no table",
			args:      []string{"--conn", dbFile, "columns"},
			wantError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			os.Args = append([]string{"tablecon"}, tc.args...)
			var logBuf bytes.Buffer
			log.SetOutput(&logBuf)
			defer log.SetOutput(os.Stderr)

			out, err := captureStdout(t, runCommand)
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.wantOut != "" {
				assert.Contains(t, out, tc.wantOut)
			}
			assert.Contains(t, logBuf.String(), tc.wantLog)
		})
	}
}

func TestParseValue(t *testing.T) {
	tbl := []struct {
		in   string
		want sqlb.Value
	}{
		{in: "42", want: sqlb.Int(42)},
		{in: "-7", want: sqlb.Int(-7)},
		{in: "3.5", want: sqlb.Float(3.5)},
		{in: "1e3", want: sqlb.Float(1000)},
		{in: "abc", want: sqlb.String("abc")},
		{in: "", want: sqlb.String("")},
		{in: "NaN", want: sqlb.String("NaN")},
		{in: "'42'", want: sqlb.String("42")},
		{in: `"Don't"`, want: sqlb.String("Don't")},
		{in: "'", want: sqlb.String("'")},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter([]string{"a=1", "b=x", "a=2", "a=3", "c=a=b"})
	require.NoError(t, err)
	assert.Equal(t, sqlb.Filter{
		{Field: "a", Value: sqlb.List(sqlb.Int(1), sqlb.Int(2), sqlb.Int(3))},
		{Field: "b", Value: sqlb.String("x")},
		{Field: "c", Value: sqlb.String("a=b")},
	}, f)

	_, err = parseFilter([]string{"=1"})
	require.Error(t, err)

	f, err = parseFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestMainFunc(t *testing.T) {
	os.Args = []string{"tablecon", "--help"}
	exited := false
	exitFunc = func(int) { exited = true }
	defer func() { exitFunc = os.Exit }()

	out, err := captureStdout(t, func() error { main(); return nil })
	require.NoError(t, err)
	assert.True(t, exited)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "filter")
}

func TestSetupLog(t *testing.T) {
	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	setupLog(true)
	log.Printf("[DEBUG] debug line")
	setupLog(false)
	log.Printf("[DEBUG] hidden line")
	log.Printf("[WARN] warn line")

	_ = w.Close()
	os.Stderr = oldStderr
	defer setupLog(false)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "debug line")
	assert.Contains(t, string(out), "warn line")
	assert.NotContains(t, string(out), "hidden line", "no debug without dbg")
	assert.NotContains(t, string(out), "\x1b[", "no colors for non-terminal")
}

func runCommand() error {
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		return err
	}
	return run(context.Background(), p, opts)
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fnErr := fn()
	_ = w.Close()
	os.Stdout = oldStdout
	return <-done, fnErr
}

// prepDB makes a sqlite file with empty renames table
func prepDB(t *testing.T) string {
	t.Helper()
	fname, err := fileutils.TempFileName("", "tablecon-*.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(fname) })

	ctx := context.Background()
	c, err := table.Open(ctx, fname, "renames", table.Opts{})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Execute(ctx, sqlb.Raw("CREATE TABLE renames (composer TEXT, album TEXT, original_name TEXT, number INTEGER)", false)))
	return fname
}
