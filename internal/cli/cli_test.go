package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/config"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/hook"
)

// run executes the root command with a config file in a fresh base directory.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	logger.SetTestOutput(&bytes.Buffer{})
	t.Cleanup(logger.UnsetTestOutput)

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func newConfigFile(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.BaseDirectory = base
	cfg.HomeDirectory = filepath.Join(base, "home")
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, cfg.SaveConfig(path))
	return path, base
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "missing.yaml"), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "apprepo version "+Version)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.FileName)

	_, err := run(t, path, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, path, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigSetGetShow(t *testing.T) {
	path, _ := newConfigFile(t)

	_, err := run(t, path, "config", "set", "origin", "acme")
	require.NoError(t, err)

	out, err := run(t, path, "config", "get", "origin")
	require.NoError(t, err)
	assert.Equal(t, "acme\n", out)

	out, err = run(t, path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "SETTING")
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, config.DefaultIndex)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	path, _ := newConfigFile(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "no_such_key", "x"}},
		{"bad log level", []string{"config", "set", "log_level", "loud"}},
		{"bad concurrency", []string{"config", "set", "tool_concurrency", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, path, tt.args...)
			assert.Error(t, err)
		})
	}

	out, err := run(t, path, "config", "get", "log_level")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLogLevel+"\n", out)
}

func TestIndexLifecycleWithoutKey(t *testing.T) {
	path, _ := newConfigFile(t)

	_, err := run(t, path, "index", "add", "beta-testing")
	require.NoError(t, err)

	out, err := run(t, path, "index", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultIndex, "beta-testing"}, strings.Fields(out))

	_, err = run(t, path, "index", "add", "beta-testing")
	assert.Error(t, err)

	_, err = run(t, path, "index", "remove", "beta-testing")
	require.NoError(t, err)

	out, err = run(t, path, "index", "list")
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultIndex}, strings.Fields(out))
}

func TestIndexRemoveUnknown(t *testing.T) {
	path, _ := newConfigFile(t)

	_, err := run(t, path, "index", "remove", "nope")
	assert.ErrorIs(t, err, errutils.ErrIndexNotFound)
}

func TestHookTemplate(t *testing.T) {
	path, _ := newConfigFile(t)

	out, err := run(t, path, "hook", "template", string(hook.PreIngest))
	require.NoError(t, err)
	assert.Equal(t, hook.Template(hook.PreIngest)+"\n", out)

	_, err = run(t, path, "hook", "template", "on-delete")
	assert.Error(t, err)
}

func TestHookInit(t *testing.T) {
	path, base := newConfigFile(t)
	script := filepath.Join(base, "home", "hooks", string(hook.PostIngest)+hook.Extension)

	_, err := run(t, path, "hook", "init", string(hook.PostIngest))
	require.NoError(t, err)
	content, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, hook.Template(hook.PostIngest)+"\n", string(content))

	_, err = run(t, path, "hook", "init", string(hook.PostIngest))
	assert.Error(t, err)
}

func TestDeleteOutsideRepository(t *testing.T) {
	path, base := newConfigFile(t)
	outside := filepath.Join(base, "config.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	_, err := run(t, path, "delete", outside)
	assert.ErrorIs(t, err, errutils.ErrOutsideRepository)
	assert.FileExists(t, outside)
}

func TestDeleteMatchRequiresKey(t *testing.T) {
	path, _ := newConfigFile(t)

	_, err := run(t, path, "delete", config.DefaultIndex, "--match", ".*")
	assert.ErrorIs(t, err, errutils.ErrKeyMissing)
}
