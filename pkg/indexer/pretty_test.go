package indexer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/identity"
)

const xenialDeb = "myapp-0.1-linux-ubuntu-xenial-x64.deb"

// placeInTree writes a file straight into the identity layout, bypassing Consume.
func placeInTree(t *testing.T, p *Pretty, filename string) string {
	t.Helper()
	id, err := identity.Parse(filename)
	require.NoError(t, err)
	dir := p.artifactDir(id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, debMagic, 0o644))
	return path
}

func readReleases(t *testing.T, p *Pretty, name string) []Release {
	t.Helper()
	var releases []Release
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(p.packagesRoot(), name, ReleasesJSON))), &releases))
	return releases
}

func TestPretty_Interested(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     bool
	}{
		{"deb", xenialDeb, debMagic, true},
		{"fake deb", "fake-0.1-linux-ubuntu-xenial-x64.deb", []byte("text"), false},
		{"rpm", centosRPM, rpmMagic, true},
		{"msi", "myapp-1.0-windows-x64.msi", []byte("MZ"), true},
		{"interpreter build", "python-2.7.8-linux-ubuntu-trusty-x64.tar.gz", []byte("gz"), false},
		{"source distribution", "myapp-1.0-python-sdist.tar.gz", []byte("gz"), false},
		{"unparseable", "README.txt", []byte("hello"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := env.incomingFile(t, tt.filename, tt.data)
			assert.Equal(t, tt.want, p.Interested(path, "", ""))
		})
	}
}

func TestPretty_Initialise(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)

	require.NoError(t, p.Initialise(ctx))
	assert.Equal(t, "[]", readFile(t, p.PackagesJSONPath()))
	assert.DirExists(t, p.packagesRoot())

	require.NoError(t, os.WriteFile(p.PackagesJSONPath(), []byte("{broken"), 0o644))
	require.NoError(t, p.Initialise(ctx))
	assert.Equal(t, "[]", readFile(t, p.PackagesJSONPath()))

	valid := `[{"name": "myapp"}]`
	require.NoError(t, os.WriteFile(p.PackagesJSONPath(), []byte(valid), 0o644))
	require.NoError(t, p.Initialise(ctx))
	assert.Equal(t, valid, readFile(t, p.PackagesJSONPath()))
}

func TestPretty_Consume(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)
	require.NoError(t, p.Initialise(ctx))

	placement, err := p.Consume(ctx, env.incomingFile(t, xenialDeb, debMagic), "linux-ubuntu-xenial", "x64")
	require.NoError(t, err)

	want := filepath.Join(p.BaseDirectory(), "packages", "myapp", "releases", "0.1",
		"distributions", "linux-ubuntu-xenial", "architectures", "x64", "extensions", "deb", xenialDeb)
	assert.Equal(t, fsutil.Placement{Path: want, Outcome: fsutil.Placed}, placement)

	packages, err := p.ReadPackages()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	pkg := packages[0]
	assert.Equal(t, "myapp", pkg.Name)
	assert.Equal(t, "Myapp", pkg.ProductName)
	assert.Equal(t, "0.1", pkg.LatestVersion)
	assert.False(t, pkg.Hidden)
	assert.Equal(t, "/packages/main-stable/index/packages/myapp/releases.json", pkg.ReleasesURI)
	assert.Equal(t, Instructions{
		Install: Instruction{Command: "sudo apt-get install -y myapp"},
		Upgrade: Instruction{Command: "sudo apt-get update; sudo apt-get install -y myapp"},
	}, pkg.InstallationInstructions["ubuntu"])

	releases := readReleases(t, p, "myapp")
	require.Len(t, releases, 1)
	assert.Equal(t, "0.1", releases[0].Version)
	assert.NotEmpty(t, releases[0].LastModified)
	assert.Equal(t, []Distribution{{
		Platform:     "linux-ubuntu-xenial",
		Architecture: "x64",
		Extension:    "deb",
		Filepath:     "/packages/main-stable/index/packages/myapp/releases/0.1/distributions/linux-ubuntu-xenial/architectures/x64/extensions/deb/" + xenialDeb,
	}}, releases[0].Distributions)

	again, err := p.Consume(ctx, placement.Path, "linux-ubuntu-xenial", "x64")
	require.NoError(t, err)
	assert.Equal(t, fsutil.AlreadyExists, again.Outcome)

	files, err := p.IterFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{placement.Path}, files)
}

func TestPretty_ReleaseOrdering(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)
	for _, v := range []string{"0.9", "1.2", "1.10", "1.2-3"} {
		placeInTree(t, p, "myapp-"+v+"-linux-ubuntu-xenial-x64.deb")
	}
	require.NoError(t, p.RebuildIndex(context.Background()))

	var versions []string
	for _, r := range readReleases(t, p, "myapp") {
		versions = append(versions, r.Version)
	}
	assert.Equal(t, []string{"1.10", "1.2-3", "1.2", "0.9"}, versions)

	packages, err := p.ReadPackages()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "1.10", packages[0].LatestVersion)
}

func TestPretty_HiddenMarkers(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)

	placeInTree(t, p, "myapp-1.0-linux-ubuntu-xenial-x64.deb")
	newest := placeInTree(t, p, "myapp-2.0-linux-ubuntu-xenial-x64.deb")
	placeInTree(t, p, "myapp-1.0-linux-centos-6-x64.rpm")
	placeInTree(t, p, "internal-1.0-linux-ubuntu-xenial-x64.deb")

	releaseDir := filepath.Join(p.packagesRoot(), "myapp", "releases", "2.0")
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, HiddenMarker), nil, 0o644))
	centos := filepath.Join(p.packagesRoot(), "myapp", "releases", "1.0", "distributions", "linux-centos-6")
	require.NoError(t, os.WriteFile(filepath.Join(centos, HiddenMarker), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(p.packagesRoot(), "internal", HiddenMarker), nil, 0o644))
	extensionMarker := filepath.Join(filepath.Dir(newest), HiddenMarker)
	require.NoError(t, os.WriteFile(extensionMarker, nil, 0o644))

	require.NoError(t, p.RebuildIndex(context.Background()))

	releases := readReleases(t, p, "myapp")
	require.Len(t, releases, 1)
	assert.Equal(t, "1.0", releases[0].Version)
	require.Len(t, releases[0].Distributions, 1)
	assert.Equal(t, "linux-ubuntu-xenial", releases[0].Distributions[0].Platform)

	packages, err := p.ReadPackages()
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "internal", packages[0].Name)
	assert.True(t, packages[0].Hidden)
	assert.Equal(t, "1.0", packages[1].LatestVersion)

	files, err := p.IterFiles()
	require.NoError(t, err)
	assert.Contains(t, files, newest)
	assert.NotContains(t, files, extensionMarker)
	assert.Len(t, files, 4)
}

func TestPretty_SkipsAmbiguousAndEmptyReleases(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)

	path := placeInTree(t, p, "myapp-1.0-linux-ubuntu-xenial-x64.deb")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "extra.deb"), debMagic, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(p.packagesRoot(), "myapp", "releases", "2.0", "distributions"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(p.packagesRoot(), "empty"), 0o755))

	require.NoError(t, p.RebuildIndex(context.Background()))

	assert.Empty(t, readReleases(t, p, "myapp"))
	assert.Empty(t, readReleases(t, p, "empty"))
	packages, err := p.ReadPackages()
	require.NoError(t, err)
	assert.Empty(t, packages)
	assert.Equal(t, "[]\n", readFile(t, p.PackagesJSONPath()))
}

func TestPretty_ProductMetadataAndSorting(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)

	placeInTree(t, p, "zeta-tool-1.0-linux-ubuntu-xenial-x64.deb")
	placeInTree(t, p, "backup-agent-1.0-linux-ubuntu-xenial-x64.deb")
	placeInTree(t, p, "alpha-1.0-linux-ubuntu-xenial-x64.deb")
	require.NoError(t, os.WriteFile(filepath.Join(p.packagesRoot(), "alpha", ProductNameFile), []byte("Zulu Console\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(p.packagesRoot(), "backup-agent", ReleaseNotesFile), []byte(" https://example.com/notes \n"), 0o644))

	require.NoError(t, p.RebuildIndex(context.Background()))
	packages, err := p.ReadPackages()
	require.NoError(t, err)

	var names []string
	for _, pkg := range packages {
		names = append(names, pkg.ProductName)
	}
	assert.Equal(t, []string{"Backup Agent", "Zeta Tool", "Zulu Console"}, names)
	assert.Equal(t, "https://example.com/notes", packages[0].ReleaseNotesURL)
	assert.Empty(t, packages[1].ReleaseNotesURL)
}

func TestPretty_InstructionOverrides(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)
	placeInTree(t, p, xenialDeb)
	override := "ubuntu:\n  install:\n    command: sudo apt-get install -y myapp-server\n  upgrade:\n    notes:\n      - Restart the service afterwards\n"
	require.NoError(t, os.WriteFile(filepath.Join(p.packagesRoot(), "myapp", InstructionsOverrideFile), []byte(override), 0o644))

	require.NoError(t, p.RebuildIndex(context.Background()))
	packages, err := p.ReadPackages()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, Instructions{
		Install: Instruction{Command: "sudo apt-get install -y myapp-server"},
		Upgrade: Instruction{Notes: []string{"Restart the service afterwards"}},
	}, packages[0].InstallationInstructions["ubuntu"])
}

func TestPretty_InvalidOverridesAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)
	placeInTree(t, p, xenialDeb)
	require.NoError(t, os.WriteFile(filepath.Join(p.packagesRoot(), "myapp", InstructionsOverrideFile), []byte("ubuntu: [unterminated"), 0o644))

	require.NoError(t, p.RebuildIndex(context.Background()))
	packages, err := p.ReadPackages()
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "sudo apt-get install -y myapp", packages[0].InstallationInstructions["ubuntu"].Install.Command)
}

func TestPretty_RebuildIndexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := NewPretty(testIndex, env.opts)
	require.NoError(t, p.Initialise(ctx))
	for _, name := range []string{xenialDeb, "myapp-0.2-linux-ubuntu-xenial-x64.deb", centosRPM} {
		_, err := p.Consume(ctx, env.incomingFile(t, name, debMagic), "", "")
		require.NoError(t, err)
	}

	require.NoError(t, p.RebuildIndex(ctx))
	first := snapshot(t, p.BaseDirectory())
	info, err := os.Stat(p.PackagesJSONPath())
	require.NoError(t, err)

	require.NoError(t, p.RebuildIndex(ctx))
	assert.Equal(t, first, snapshot(t, p.BaseDirectory()))
	again, err := os.Stat(p.PackagesJSONPath())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestDefaultProductName(t *testing.T) {
	tests := map[string]string{
		"myapp":              "Myapp",
		"host-power-tools":   "Host Power Tools",
		"collectd-curl_json": "Collectd Curl_json",
		"IZBox":              "Izbox",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, defaultProductName(in))
		})
	}
}
