package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/indexer"
)

func emptyFactory(name string) *Index {
	return &Index{Name: name}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry([]string{"main-stable", "main-testing"}, indexer.Options{PackagesDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"main-stable", "main-testing"}, r.Names())

	idx, err := r.Get("main-testing")
	require.NoError(t, err)
	assert.Len(t, idx.Indexers, len(indexer.Types()))

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, errutils.ErrIndexNotFound)
}

func TestNewRegistry_RejectsInvalidNames(t *testing.T) {
	_, err := NewRegistryWithFactory([]string{"ok", "a/b"}, emptyFactory)
	assert.ErrorIs(t, err, errutils.ErrInvalidIndexName)

	_, err = NewRegistryWithFactory([]string{"ok", "ok"}, emptyFactory)
	assert.ErrorIs(t, err, errutils.ErrIndexExists)
}

func TestRegistry_AddRemove(t *testing.T) {
	r, err := NewRegistryWithFactory([]string{"b"}, emptyFactory)
	require.NoError(t, err)

	added, err := r.Add("a")
	require.NoError(t, err)
	assert.Equal(t, "a", added.Name)
	assert.Equal(t, []string{"b", "a"}, r.Names())

	_, err = r.Add("a")
	assert.ErrorIs(t, err, errutils.ErrIndexExists)

	require.NoError(t, r.Remove("b"))
	assert.Equal(t, []string{"a"}, r.Names())
	assert.ErrorIs(t, r.Remove("b"), errutils.ErrIndexNotFound)

	all := r.All()
	require.Len(t, all, 1)
	assert.Same(t, added, all[0])
}

func TestRegistry_NamesIsACopy(t *testing.T) {
	r, err := NewRegistryWithFactory([]string{"a", "b"}, emptyFactory)
	require.NoError(t, err)
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
