package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDir(t *testing.T) {
	if os.Geteuid() == 0 {
		dir, err := GetDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/apprepo", dir)
		return
	}

	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	dir, err := GetDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, AppName), dir)
}

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))
}
