package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAll(t *testing.T) {
	env := newTestEnv(t)
	all := NewAll(testIndex, env.opts)

	var types []string
	for _, ix := range all {
		types = append(types, ix.Type())
		assert.Equal(t, filepath.Join(env.opts.PackagesDir, testIndex, ix.Type()), ix.BaseDirectory())
	}
	assert.Equal(t, Types(), types)
}

func TestNew(t *testing.T) {
	env := newTestEnv(t)
	for _, typ := range Types() {
		ix, ok := New(typ, testIndex, env.opts)
		require.True(t, ok, typ)
		assert.Equal(t, typ, ix.Type())
	}
	_, ok := New("conda", testIndex, env.opts)
	assert.False(t, ok)
}

func TestPublicPath(t *testing.T) {
	env := newTestEnv(t)
	b := newBase(TypeIndex, testIndex, env.opts)

	assert.Equal(t, "/packages/main-stable/index/packages.json",
		b.publicPath(filepath.Join(env.base, "packages", testIndex, "index", "packages.json")))
	assert.Equal(t, "/elsewhere/file", b.publicPath("/elsewhere/file"))
}

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Packages")

	changed, err := writeIfChanged(path, []byte("a"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = writeIfChanged(path, []byte("a"))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = writeIfChanged(path, []byte("b"))
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}
