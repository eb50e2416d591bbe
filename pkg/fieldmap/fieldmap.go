// Package fieldmap translates caller-facing field names to storage column names.
// Names missing in the map pass through unchanged.
package fieldmap

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Map is field name -> column name. Nil or empty Map is the identity.
type Map map[string]string

// Name returns the column for the field, or the field itself if not mapped
func (m Map) Name(name string) string {
	if col, ok := m[name]; ok {
		return col
	}
	return name
}

// Names maps every name, the order is kept
func (m Map) Names(names []string) []string {
	if names == nil {
		return nil
	}
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = m.Name(n)
	}
	return res
}

// MapKeys returns a copy of the input with every key mapped. If two keys map to the same column,
// the value of the last key in sorted order wins.
func MapKeys[V any](m Map, in map[string]V) map[string]V {
	if in == nil {
		return nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make(map[string]V, len(in))
	for _, k := range keys {
		res[m.Name(k)] = in[k]
	}
	return res
}

// file is a field map file layout
type file struct {
	Fields map[string]string `yaml:"fields" toml:"fields"`
}

// Load reads field map from yaml or toml file, format is detected by extension.
// Files with no extension are parsed as yaml.
func Load(fname string) (Map, error) {
	if !fileutils.IsFile(fname) {
		return nil, fmt.Errorf("field map %s is not a regular file", fname)
	}
	data, err := os.ReadFile(fname) // nolint
	if err != nil {
		return nil, fmt.Errorf("can't read field map %s: %w", fname, err)
	}

	var f file
	switch filepath.Ext(fname) {
	case ".yml", ".yaml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("can't unmarshal yaml field map %s: %w", fname, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err = dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("can't unmarshal toml field map %s: %w", fname, err)
		}
	default:
		return nil, fmt.Errorf("unknown field map format %s", fname)
	}

	if err := validate(f.Fields); err != nil {
		return nil, fmt.Errorf("invalid field map %s: %w", fname, err)
	}
	log.Printf("[DEBUG] field map %s loaded, %d fields", fname, len(f.Fields))
	return Map(f.Fields), nil
}

func validate(m map[string]string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := new(multierror.Error)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			errs = multierror.Append(errs, fmt.Errorf("empty field name mapped to %q", m[k]))
		}
		if strings.TrimSpace(m[k]) == "" {
			errs = multierror.Append(errs, fmt.Errorf("field %q mapped to empty column", k))
		}
	}
	return errs.ErrorOrNil()
}
