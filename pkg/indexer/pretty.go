package indexer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/identity"
	"github.com/glorpus-work/apprepo/pkg/pkgtype"
	"github.com/glorpus-work/apprepo/pkg/platform"
	"github.com/glorpus-work/apprepo/pkg/version"
)

// Marker and metadata file names of the browsable tree.
const (
	PackagesJSON     = "packages.json"
	ReleasesJSON     = "releases.json"
	HiddenMarker     = "hidden"
	ProductNameFile  = "product_name"
	ReleaseNotesFile = "release_notes_url"
)

// Distribution is one downloadable file of a release.
type Distribution struct {
	Platform     string `json:"platform"`
	Architecture string `json:"architecture"`
	Extension    string `json:"extension"`
	Filepath     string `json:"filepath"`
}

// Release is one version of a package.
type Release struct {
	Version       string         `json:"version"`
	LastModified  string         `json:"last_modified"`
	Distributions []Distribution `json:"distributions"`
}

// Package is an entry of packages.json.
type Package struct {
	Name                     string                  `json:"name"`
	Hidden                   bool                    `json:"hidden"`
	ProductName              string                  `json:"product_name"`
	ReleaseNotesURL          string                  `json:"release_notes_url,omitempty"`
	LatestVersion            string                  `json:"latest_version"`
	ReleasesURI              string                  `json:"releases_uri"`
	InstallationInstructions map[string]Instructions `json:"installation_instructions"`
}

// Pretty is the browsable tree, laid out by identity:
// packages/<name>/releases/<version>/distributions/<platform>/architectures/<arch>/extensions/<ext>/<file>.
type Pretty struct {
	base
}

// NewPretty creates the generic tree indexer of index.
func NewPretty(index string, opts Options) *Pretty {
	return &Pretty{base: newBase(TypeIndex, index, opts)}
}

func (p *Pretty) packagesRoot() string {
	return filepath.Join(p.root, "packages")
}

// PackagesJSONPath is the aggregate listing of the index.
func (p *Pretty) PackagesJSONPath() string {
	return filepath.Join(p.root, PackagesJSON)
}

// Initialise creates the tree root and an empty listing when none is valid.
func (p *Pretty) Initialise(ctx context.Context) error {
	if err := fsutil.EnsureDir(p.packagesRoot()); err != nil {
		return err
	}
	if data, err := os.ReadFile(p.PackagesJSONPath()); err == nil {
		var existing []json.RawMessage
		if json.Unmarshal(data, &existing) == nil && existing != nil {
			return nil
		}
	}
	return fsutil.WriteFileAtomic(p.PackagesJSONPath(), []byte("[]"), fsutil.FileModeDefault)
}

// Interested accepts any parseable artifact except those owned by the
// Python indexers. Binary package formats must match their extension.
func (p *Pretty) Interested(path, _, _ string) bool {
	id, err := identity.Parse(path)
	if err != nil {
		return false
	}
	if id.Name == "python" {
		return false
	}
	if id.Platform == platform.Python && id.Architecture == platform.ArchSdist {
		return false
	}
	return pkgtype.Matches(path, id.Extension)
}

func (p *Pretty) artifactDir(id identity.Identity) string {
	return filepath.Join(p.packagesRoot(), id.Name,
		"releases", id.Version,
		"distributions", id.Platform,
		"architectures", id.Architecture,
		"extensions", id.Extension)
}

// Consume places the artifact in its identity directory and rebuilds the
// whole listing.
func (p *Pretty) Consume(ctx context.Context, path, _, _ string) (fsutil.Placement, error) {
	id, err := identity.Parse(path)
	if err != nil {
		return fsutil.Placement{}, err
	}
	if id.Extension == "ova" {
		id.Platform = platform.VMwareESX
	}

	dir := p.artifactDir(id)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fsutil.Placement{}, err
	}
	placement, err := fsutil.Place(path, dir)
	if err != nil || placement.Outcome == fsutil.AlreadyExists {
		return placement, err
	}

	logger.Info("Added artifact to index tree", p.fields(logger.Fields{"file": filepath.Base(path)}))
	return placement, p.RebuildIndex(ctx)
}

func isHidden(dir string) bool {
	return fsutil.Exists(filepath.Join(dir, HiddenMarker))
}

func readTrimmed(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func defaultProductName(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func visibleSubdirs(dir string) ([]string, error) {
	dirs, err := fsutil.ListSubdirectories(dir)
	if err != nil {
		return nil, err
	}
	visible := dirs[:0]
	for _, d := range dirs {
		if !isHidden(d) {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

func (p *Pretty) distributions(releaseDir string) ([]Distribution, error) {
	var result []Distribution
	dists, err := visibleSubdirs(filepath.Join(releaseDir, "distributions"))
	if err != nil {
		return nil, err
	}
	for _, distDir := range dists {
		archs, err := visibleSubdirs(filepath.Join(distDir, "architectures"))
		if err != nil {
			return nil, err
		}
		for _, archDir := range archs {
			exts, err := visibleSubdirs(filepath.Join(archDir, "extensions"))
			if err != nil {
				return nil, err
			}
			for _, extDir := range exts {
				files, err := fsutil.ListRegularFiles(extDir)
				if err != nil {
					return nil, err
				}
				if len(files) != 1 {
					logger.Warn("Expected exactly one file in extension directory", p.fields(logger.Fields{
						"dir":   extDir,
						"files": len(files),
					}))
					continue
				}
				result = append(result, Distribution{
					Platform:     filepath.Base(distDir),
					Architecture: filepath.Base(archDir),
					Extension:    filepath.Base(extDir),
					Filepath:     p.publicPath(files[0]),
				})
			}
		}
	}
	return result, nil
}

func (p *Pretty) releases(packageDir string) ([]Release, error) {
	dirs, err := visibleSubdirs(filepath.Join(packageDir, "releases"))
	if err != nil {
		return nil, err
	}
	var releases []Release
	for _, dir := range dirs {
		dists, err := p.distributions(dir)
		if err != nil {
			return nil, err
		}
		if len(dists) == 0 {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		releases = append(releases, Release{
			Version:       filepath.Base(dir),
			LastModified:  info.ModTime().UTC().Format(time.ANSIC),
			Distributions: dists,
		})
	}
	version.SortDescending(releases, func(r Release) string { return r.Version }, version.CompareIgnoringRevision)
	return releases, nil
}

func marshalIndented(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RebuildIndex walks the tree and rewrites every releases.json and the
// aggregate packages.json.
func (p *Pretty) RebuildIndex(ctx context.Context) error {
	packageDirs, err := fsutil.ListSubdirectories(p.packagesRoot())
	if err != nil {
		return err
	}

	packages := []Package{}
	for _, dir := range packageDirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkg, ok, err := p.buildPackage(dir)
		if err != nil {
			return err
		}
		if ok {
			packages = append(packages, pkg)
		}
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].ProductName < packages[j].ProductName
	})
	data, err := marshalIndented(packages)
	if err != nil {
		return err
	}
	if _, err := writeIfChanged(p.PackagesJSONPath(), data); err != nil {
		return err
	}
	logger.Debug("Rebuilt index tree", p.fields(logger.Fields{"packages": len(packages)}))
	return nil
}

func (p *Pretty) buildPackage(dir string) (Package, bool, error) {
	name := filepath.Base(dir)
	releases, err := p.releases(dir)
	if err != nil {
		return Package{}, false, err
	}

	releasesPath := filepath.Join(dir, ReleasesJSON)
	data, err := marshalIndented(nonNil(releases))
	if err != nil {
		return Package{}, false, err
	}
	if _, err := writeIfChanged(releasesPath, data); err != nil {
		return Package{}, false, err
	}
	if len(releases) == 0 {
		return Package{}, false, nil
	}

	productName, ok := readTrimmed(filepath.Join(dir, ProductNameFile))
	if !ok || productName == "" {
		productName = defaultProductName(name)
	}
	notes, _ := readTrimmed(filepath.Join(dir, ReleaseNotesFile))

	latest := releases[0]
	instructions, err := applyOverrides(dir, p.installationInstructions(name, latest.Distributions))
	if err != nil {
		logger.Warn("Ignoring installation instruction overrides", p.fields(logger.Fields{"package": name, "error": err.Error()}))
	}

	return Package{
		Name:                     name,
		Hidden:                   isHidden(dir),
		ProductName:              productName,
		ReleaseNotesURL:          notes,
		LatestVersion:            latest.Version,
		ReleasesURI:              p.publicPath(releasesPath),
		InstallationInstructions: instructions,
	}, true, nil
}

func nonNil(releases []Release) []Release {
	if releases == nil {
		return []Release{}
	}
	return releases
}

// ReadPackages parses the aggregate listing.
func (p *Pretty) ReadPackages() ([]Package, error) {
	data, err := os.ReadFile(p.PackagesJSONPath())
	if err != nil {
		return nil, err
	}
	var packages []Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// IterFiles lists every artifact of the tree, hidden ones included. Hidden
// markers are not artifacts.
func (p *Pretty) IterFiles() ([]string, error) {
	files, err := fsutil.Glob(filepath.Join(p.packagesRoot(), "*", "releases", "*",
		"distributions", "*", "architectures", "*", "extensions", "*", "*"))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(files, func(f string) bool {
		return filepath.Base(f) == HiddenMarker
	}), nil
}
