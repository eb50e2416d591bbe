package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_Name(t *testing.T) {
	m := Map{"Original name": "original_name", "#": "number"}

	assert.Equal(t, "original_name", m.Name("Original name"))
	assert.Equal(t, "number", m.Name("#"))
	assert.Equal(t, "composer", m.Name("composer"), "unmapped passes through")
	assert.Equal(t, "original_name", m.Name("original_name"), "column name is not a key")

	var empty Map
	assert.Equal(t, "Original name", empty.Name("Original name"))
}

func TestMap_Names(t *testing.T) {
	m := Map{"b": "col_b"}
	assert.Equal(t, []string{"a", "col_b", "c", "col_b"}, m.Names([]string{"a", "b", "c", "b"}))
	assert.Nil(t, m.Names(nil))
	assert.Equal(t, []string{}, m.Names([]string{}))

	in := []string{"x", "b"}
	_ = m.Names(in)
	assert.Equal(t, []string{"x", "b"}, in, "input untouched")

	assert.Equal(t, []string{"a", "b"}, Map{}.Names([]string{"a", "b"}))
}

func TestMapKeys(t *testing.T) {
	m := Map{"Original name": "original_name", "#": "number"}
	res := MapKeys(m, map[string]any{"Original name": "Foo", "#": 3, "album": "X"})
	assert.Equal(t, map[string]any{"original_name": "Foo", "number": 3, "album": "X"}, res)

	assert.Nil(t, MapKeys[int](m, nil))

	in := map[string]int{"a": 1, "b": 2}
	assert.Equal(t, in, MapKeys(nil, in), "empty map is identity")

	collide := MapKeys(Map{"a": "c", "b": "c"}, map[string]int{"a": 1, "b": 2})
	assert.Equal(t, map[string]int{"c": 2}, collide)
}

func TestLoad(t *testing.T) {
	want := Map{"Original name": "original_name", "#": "number"}

	t.Run("yaml", func(t *testing.T) {
		m, err := Load("testdata/fields.yml")
		require.NoError(t, err)
		assert.Equal(t, want, m)
	})

	t.Run("toml", func(t *testing.T) {
		m, err := Load("testdata/fields.toml")
		require.NoError(t, err)
		assert.Equal(t, want, m)
	})

	t.Run("no extension is yaml", func(t *testing.T) {
		m, err := Load("testdata/fields_noext")
		require.NoError(t, err)
		assert.Equal(t, Map{"Composer": "composer"}, m)
	})

	t.Run("unknown fields", func(t *testing.T) {
		_, err := Load("testdata/bad_key.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't unmarshal yaml field map")
	})

	t.Run("empty names", func(t *testing.T) {
		_, err := Load("testdata/empty_col.yml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "Original name" mapped to empty column`)
		assert.Contains(t, err.Error(), `empty field name mapped to "number"`)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Load("testdata/fields.json")
		require.EqualError(t, err, "unknown field map format testdata/fields.json")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/nope.yml")
		require.EqualError(t, err, "field map testdata/nope.yml is not a regular file")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load("testdata")
		require.EqualError(t, err, "field map testdata is not a regular file")
	})
}
