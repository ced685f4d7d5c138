package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

func bundleName(v string) string {
	return "host-power-tools-for-vmware-" + v + "-vmware-esx-x86_OVF10_UPDATE_ZIP.zip"
}

// makeBundle zips files into an update bundle in the incoming directory.
func makeBundle(t *testing.T, env *testEnv, v string, files map[string]string) string {
	t.Helper()
	src := t.TempDir()
	for name, content := range files {
		path := filepath.Join(src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	dest := filepath.Join(env.incoming, bundleName(v))
	entries, err := archives.FilesFromDisk(context.Background(), nil, map[string]string{src + string(os.PathSeparator): ""})
	require.NoError(t, err)
	out, err := os.Create(dest)
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, archives.Zip{}.Archive(context.Background(), out, entries))
	return dest
}

func TestVMUpdates_Interested(t *testing.T) {
	env := newTestEnv(t)
	v := NewVMUpdates(testIndex, env.opts)

	assert.True(t, v.Interested(bundleName("1.7.4"), "other", "x86_OVF10_UPDATE_ZIP"))
	assert.False(t, v.Interested("host-power-tools-for-vmware-1.7.4-vmware-esx-x86_OVF10_UPDATE_ISO.iso", "", ""))
	assert.False(t, v.Interested("appliance-1.0-vmware-esx-x86_OVF10.ova", "", ""))
	assert.False(t, v.Interested("updates.zip", "", ""))
}

func TestVMUpdates_ExtractsOnlyNewestBundle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := NewVMUpdates(testIndex, env.opts)
	require.NoError(t, v.Initialise(ctx))
	dir := filepath.Join(v.BaseDirectory(), "host-power-tools-for-vmware")

	first, err := v.Consume(ctx, makeBundle(t, env, "1.6.13", map[string]string{
		"manifest/version.txt": "1.6.13",
		"legacy.txt":           "old",
	}), "", "")
	require.NoError(t, err)
	assert.Equal(t, fsutil.Placed, first.Outcome)
	assert.Equal(t, "1.6.13", readFile(t, filepath.Join(dir, "manifest", "version.txt")))
	assert.FileExists(t, filepath.Join(dir, "legacy.txt"))

	_, err = v.Consume(ctx, makeBundle(t, env, "1.7.4", map[string]string{
		"manifest/version.txt": "1.7.4",
	}), "", "")
	require.NoError(t, err)
	assert.Equal(t, "1.7.4", readFile(t, filepath.Join(dir, "manifest", "version.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "legacy.txt"))
	assert.FileExists(t, first.Path, "older bundles stay published")

	older, err := v.Consume(ctx, makeBundle(t, env, "1.7.3", map[string]string{
		"manifest/version.txt": "1.7.3",
		"only-in-1.7.3.txt":    "x",
	}), "", "")
	require.NoError(t, err)
	assert.Equal(t, fsutil.Placed, older.Outcome)
	assert.Equal(t, "1.7.4", readFile(t, filepath.Join(dir, "manifest", "version.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "only-in-1.7.3.txt"))

	files, err := v.IterFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, bundleName("1.6.13")),
		filepath.Join(dir, bundleName("1.7.3")),
		filepath.Join(dir, bundleName("1.7.4")),
	}, files)
}

func TestVMUpdates_RebuildIndexRestoresContents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := NewVMUpdates(testIndex, env.opts)
	require.NoError(t, v.Initialise(ctx))

	placement, err := v.Consume(ctx, makeBundle(t, env, "1.7.4", map[string]string{"version.txt": "1.7.4"}), "", "")
	require.NoError(t, err)
	dir := filepath.Dir(placement.Path)
	require.NoError(t, os.Remove(filepath.Join(dir, "version.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	require.NoError(t, v.RebuildIndex(ctx))
	assert.Equal(t, "1.7.4", readFile(t, filepath.Join(dir, "version.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "stray.txt"))
	assert.FileExists(t, placement.Path)

	again, err := v.Consume(ctx, placement.Path, "", "")
	require.NoError(t, err)
	assert.Equal(t, fsutil.AlreadyExists, again.Outcome)
}

func TestLatestBundle(t *testing.T) {
	dir := t.TempDir()
	for _, v := range []string{"1.9.2", "1.10.0", "1.10.0-develop"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, bundleName(v)), nil, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest-latest.xml"), nil, 0o644))

	latest, err := latestBundle(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, bundleName("1.10.0")), latest)

	empty, err := latestBundle(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
