package signing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	execmocks "github.com/glorpus-work/apprepo/pkg/execute/mocks"
)

func testKeyConfig() KeyConfig {
	return KeyConfig{Name: "apprepo", Comment: "test", Email: "apprepo@example.com", Algorithm: AlgorithmEd25519}
}

// newReadyKeyring returns a keyring with a generated key and a runner that
// accepts any command.
func newReadyKeyring(t *testing.T) (*Keyring, *execmocks.MockRunner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	runner := execmocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&execute.Result{}, nil).AnyTimes()

	k := NewKeyring(t.TempDir(), testKeyConfig(), runner, false)
	fresh, err := k.Ensure(context.Background())
	require.NoError(t, err)
	require.True(t, fresh)
	return k, runner
}

func TestEnsure_GeneratesAndImports(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := execmocks.NewMockRunner(ctrl)
	var commands []string
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd execute.Command) (*execute.Result, error) {
			commands = append(commands, cmd.Name+" "+cmd.Args[len(cmd.Args)-2])
			return &execute.Result{}, nil
		}).Times(2)

	home := t.TempDir()
	k := NewKeyring(home, testKeyConfig(), runner, false)
	assert.Equal(t, NoKey, k.State())

	fresh, err := k.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, KeyImported, k.State())
	assert.Equal(t, []string{"gpg --import", "rpm --import"}, commands)

	info, err := os.Stat(filepath.Join(home, SecretKeyFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	public, err := os.ReadFile(filepath.Join(home, PublicKeyFile))
	require.NoError(t, err)
	assert.Contains(t, string(public), "BEGIN PGP PUBLIC KEY BLOCK")

	macros, err := os.ReadFile(filepath.Join(home, RPMMacrosFile))
	require.NoError(t, err)
	assert.Contains(t, string(macros), "%_gpg_name apprepo")
	assert.Contains(t, string(macros), filepath.Join(home, GnupgDir))
	assert.DirExists(t, filepath.Join(home, GnupgDir))
	assert.NotEmpty(t, k.Fingerprint())
}

func TestEnsure_ReusesCompleteHome(t *testing.T) {
	first, _ := newReadyKeyring(t)

	// No expectations: reuse must not run any tool.
	runner := execmocks.NewMockRunner(gomock.NewController(t))
	second := NewKeyring(first.home, testKeyConfig(), runner, false)

	fresh, err := second.Ensure(context.Background())
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, KeyImported, second.State())
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestEnsure_RegeneratesIncompleteHome(t *testing.T) {
	first, runner := newReadyKeyring(t)
	require.NoError(t, os.Remove(first.RPMMacrosPath()))

	second := NewKeyring(first.home, testKeyConfig(), runner, false)
	fresh, err := second.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())
}

func TestEnsure_ImportFailureLeavesKeyGenerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := execmocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).
		Return(nil, &execute.ExecError{Command: "gpg", Err: errors.New("exit status 2")})

	k := NewKeyring(t.TempDir(), testKeyConfig(), runner, false)
	fresh, err := k.Ensure(context.Background())
	require.Error(t, err)
	assert.True(t, fresh)
	assert.ErrorIs(t, err, errutils.ErrExternalTool)
	assert.Equal(t, KeyGenerated, k.State())
}

func TestEnsure_InvalidAlgorithm(t *testing.T) {
	runner := execmocks.NewMockRunner(gomock.NewController(t))
	cfg := testKeyConfig()
	cfg.Algorithm = "dsa"

	_, err := NewKeyring(t.TempDir(), cfg, runner, false).Ensure(context.Background())
	assert.ErrorIs(t, err, errutils.ErrInvalidKeyAlgorithm)
}

func TestLoad_MissingKey(t *testing.T) {
	k := NewKeyring(t.TempDir(), testKeyConfig(), nil, false)
	assert.ErrorIs(t, k.Load(), errutils.ErrKeyMissing)

	_, err := k.Entity()
	assert.ErrorIs(t, err, errutils.ErrKeyMissing)
	assert.Empty(t, k.Fingerprint())
}

func TestPublish(t *testing.T) {
	k, _ := newReadyKeyring(t)
	packages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packages, PublicKeyFile), []byte("stale"), 0o644))

	dest, err := k.Publish(filepath.Join(packages, PublicKeyFile))
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "-----BEGIN PGP PUBLIC KEY BLOCK"))
}

func TestFixEntropy(t *testing.T) {
	t.Run("as root", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := execmocks.NewMockRunner(ctrl)
		var args []string
		runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd execute.Command) (*execute.Result, error) {
				assert.True(t, cmd.AllowFailure)
				args = append(args, cmd.Args[0])
				return nil, errors.New("service missing")
			}).Times(2)

		dir := t.TempDir()
		k := NewKeyring(dir, testKeyConfig(), runner, true)
		k.geteuid = func() int { return 0 }
		k.rngScript = filepath.Join(dir, "rng-tools")
		k.rngDefaults = filepath.Join(dir, "rng-defaults")
		require.NoError(t, os.WriteFile(k.rngScript, nil, 0o755))

		k.FixEntropy(context.Background())

		assert.Equal(t, []string{"stop", "start"}, args)
		defaults, err := os.ReadFile(k.rngDefaults)
		require.NoError(t, err)
		assert.Equal(t, "HRNGDEVICE=/dev/urandom\n", string(defaults))
	})

	t.Run("not root", func(t *testing.T) {
		runner := execmocks.NewMockRunner(gomock.NewController(t))
		dir := t.TempDir()
		k := NewKeyring(dir, testKeyConfig(), runner, true)
		k.geteuid = func() int { return 1000 }
		k.rngScript = filepath.Join(dir, "rng-tools")
		require.NoError(t, os.WriteFile(k.rngScript, nil, 0o755))

		k.FixEntropy(context.Background())
	})
}

func TestKeyStateString(t *testing.T) {
	assert.Equal(t, "no-key", NoKey.String())
	assert.Equal(t, "generated", KeyGenerated.String())
	assert.Equal(t, "imported", KeyImported.String())
}
