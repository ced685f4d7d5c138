package indexer

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/apprepo/pkg/archive"
	"github.com/glorpus-work/apprepo/pkg/execute"
	execmocks "github.com/glorpus-work/apprepo/pkg/execute/mocks"
	"github.com/glorpus-work/apprepo/pkg/identity"
	idxmocks "github.com/glorpus-work/apprepo/pkg/indexer/mocks"
)

const testIndex = "main-stable"

var (
	debMagic = []byte("!<arch>\ndebian-binary   1342943816  0     0     100644  4         `\n2.0\n")
	rpmMagic = []byte{0xed, 0xab, 0xee, 0xdb, 0x03, 0x00, 0x00, 0x01}
)

// fakeTools stands in for dpkg-scanpackages and createrepo.
type fakeTools struct {
	mu              sync.Mutex
	calls           []execute.Command
	failIncremental bool
}

func (f *fakeTools) run(_ context.Context, cmd execute.Command) (*execute.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	switch cmd.Name {
	case "dpkg-scanpackages":
		return f.scanpackages(cmd.Args[1])
	case "createrepo":
		return f.createrepo(cmd.Args)
	default:
		return &execute.Result{}, nil
	}
}

func (f *fakeTools) scanpackages(dir string) (*execute.Result, error) {
	debs, err := filepath.Glob(filepath.Join(dir, "*.deb"))
	if err != nil {
		return nil, err
	}
	var out strings.Builder
	for _, deb := range debs {
		id, err := identity.Parse(deb)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(deb)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&out, "Package: %s\nVersion: %s\nArchitecture: amd64\nFilename: %s\nSize: %d\n\n",
			id.Name, id.Version, deb, info.Size())
	}
	return &execute.Result{Stdout: out.String()}, nil
}

func (f *fakeTools) createrepo(args []string) (*execute.Result, error) {
	dir := args[len(args)-1]
	if f.failIncremental && slices.Contains(args, "--update") {
		return &execute.Result{ExitCode: 1}, &execute.ExecError{Command: "createrepo", ExitCode: 1, Err: errors.New("exit status 1")}
	}
	rpms, err := filepath.Glob(filepath.Join(dir, "*.rpm"))
	if err != nil {
		return nil, err
	}
	var out strings.Builder
	out.WriteString("<repomd>\n")
	for _, rpm := range rpms {
		fmt.Fprintf(&out, "  <package>%s</package>\n", filepath.Base(rpm))
	}
	out.WriteString("</repomd>\n")
	if err := os.MkdirAll(filepath.Join(dir, repodataDir), 0o755); err != nil {
		return nil, err
	}
	return &execute.Result{}, os.WriteFile(filepath.Join(dir, repodataDir, repomdFile), []byte(out.String()), 0o644)
}

func (f *fakeTools) count(name string, withArg string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Name == name && (withArg == "" || slices.Contains(c.Args, withArg)) {
			n++
		}
	}
	return n
}

// fakeSigner records signed artifacts and writes recognisable signatures.
type fakeSigner struct {
	mu     sync.Mutex
	signed []string
}

func (s *fakeSigner) record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signed = append(s.signed, path)
}

func (s *fakeSigner) signedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signed...)
}

type testEnv struct {
	base     string
	incoming string
	opts     Options
	tools    *fakeTools
	signer   *fakeSigner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	base := t.TempDir()
	env := &testEnv{
		base:     base,
		incoming: filepath.Join(base, "incoming", testIndex),
		tools:    &fakeTools{},
		signer:   &fakeSigner{},
	}
	require.NoError(t, os.MkdirAll(env.incoming, 0o755))

	publicKey := filepath.Join(base, "gpg.key")
	require.NoError(t, os.WriteFile(publicKey, []byte("PUBLIC KEY\n"), 0o644))

	runner := execmocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(env.tools.run).AnyTimes()

	signer := idxmocks.NewMockSigner(ctrl)
	signer.EXPECT().PublicKeyPath().Return(publicKey).AnyTimes()
	signer.EXPECT().SignDEB(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, path string) error {
		env.signer.record(path)
		return nil
	}).AnyTimes()
	signer.EXPECT().SignRPM(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, path string) error {
		env.signer.record(path)
		return nil
	}).AnyTimes()
	signer.EXPECT().DetachSign(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(src, dest string, hash crypto.Hash) error {
		return os.WriteFile(dest, []byte("detached "+hash.String()+" "+filepath.Base(src)+"\n"), 0o644)
	}).AnyTimes()
	signer.EXPECT().ClearSign(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(src, dest string, hash crypto.Hash) error {
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		return os.WriteFile(dest, append([]byte("clearsigned "+hash.String()+"\n"), data...), 0o644)
	}).AnyTimes()

	env.opts = Options{
		PackagesDir:   filepath.Join(base, "packages"),
		BaseDirectory: base,
		BaseURL:       "https://repo.example.com",
		Origin:        "apprepo",
		Label:         "apprepo",
		Runner:        runner,
		Signer:        signer,
		Archive:       archive.NewManager(),
	}
	return env
}

// incomingFile writes an upload into the incoming directory.
func (e *testEnv) incomingFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.incoming, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// snapshot reads every regular file below root, keyed by relative path.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			files[rel] = readFile(t, path)
		}
		return nil
	}))
	return files
}
