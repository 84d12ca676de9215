package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	s := newCanonicalStore(t)
	e, ok := s.Lookup("/a/e")
	require.True(t, ok)

	doc := s.Document(e)
	assert.Equal(t, "e", doc["name"])
	assert.Equal(t, "dir", doc["kind"])
	assert.Equal(t, int64(584), doc["size"])
	assert.Equal(t, "/a/e", doc["path"])

	children, ok := doc["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 1)
	i := children[0].(map[string]any)
	assert.Equal(t, "/a/e/i", i["path"])
	_, hasChildren := i["children"]
	assert.False(t, hasChildren, "files carry no children key")
}

func TestJSON(t *testing.T) {
	s := newCanonicalStore(t)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(s.JSON()), &parsed))
	assert.Equal(t, "/", parsed["name"])
	assert.Equal(t, float64(48381165), parsed["size"])
	assert.Len(t, parsed["children"], 6)
}

func TestSelect(t *testing.T) {
	s := newCanonicalStore(t)

	t.Run("root children keep listing order", func(t *testing.T) {
		got, err := s.Select("$.children[*].name")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b.txt", "c.dat", "d", "a", "d"}, got)
	})

	t.Run("filter", func(t *testing.T) {
		got, err := s.Select("$.children[?(@.size > 20000000)].path")
		require.NoError(t, err)
		assert.Equal(t, []any{"/d"}, got)
	})

	t.Run("scalar", func(t *testing.T) {
		got, err := s.Select("$.size")
		require.NoError(t, err)
		assert.Equal(t, []any{int64(48381165)}, got)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := s.Select("$[?(")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid jsonpath")
	})
}
