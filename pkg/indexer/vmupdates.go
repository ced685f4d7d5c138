package indexer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/identity"
	"github.com/glorpus-work/apprepo/pkg/platform"
	"github.com/glorpus-work/apprepo/pkg/version"
)

// VMUpdates keeps the update bundles of VM appliances under <root>/<name>/
// next to the unpacked contents of the newest bundle, which is what the
// appliance update manager reads.
type VMUpdates struct {
	base
}

// NewVMUpdates creates the appliance updates indexer of index.
func NewVMUpdates(index string, opts Options) *VMUpdates {
	return &VMUpdates{base: newBase(TypeVMUpdates, index, opts)}
}

func (v *VMUpdates) Initialise(context.Context) error {
	return fsutil.EnsureDir(v.root)
}

func isUpdateBundle(path string) (identity.Identity, bool) {
	id, err := identity.Parse(path)
	if err != nil {
		return identity.Identity{}, false
	}
	return id, id.Extension == "zip" && platform.IsUpdateBundle(id.Architecture)
}

func (v *VMUpdates) Interested(path, _, _ string) bool {
	_, ok := isUpdateBundle(path)
	return ok
}

// Consume places the bundle and unpacks it when it is now the newest one.
func (v *VMUpdates) Consume(ctx context.Context, path, _, _ string) (fsutil.Placement, error) {
	id, err := identity.Parse(path)
	if err != nil {
		return fsutil.Placement{}, err
	}
	dir := filepath.Join(v.root, id.Name)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fsutil.Placement{}, err
	}
	placement, err := fsutil.Place(path, dir)
	if err != nil || placement.Outcome == fsutil.AlreadyExists {
		return placement, err
	}

	latest, err := latestBundle(dir)
	if err != nil {
		return placement, err
	}
	if latest != placement.Path {
		logger.Info("Stored older appliance update", v.fields(logger.Fields{
			"file":   filepath.Base(placement.Path),
			"latest": filepath.Base(latest),
		}))
		return placement, nil
	}
	return placement, v.extract(ctx, dir, latest)
}

// latestBundle returns the update bundle of dir with the highest version.
func latestBundle(dir string) (string, error) {
	files, err := fsutil.ListRegularFiles(dir)
	if err != nil {
		return "", err
	}
	bundles := make(map[string]string)
	versions := make([]string, 0, len(files))
	for _, f := range files {
		id, ok := isUpdateBundle(f)
		if !ok {
			continue
		}
		if _, seen := bundles[id.Version]; !seen {
			bundles[id.Version] = f
			versions = append(versions, id.Version)
		}
	}
	return bundles[version.Latest(versions)], nil
}

// extract clears everything but the bundles from dir and unpacks bundle.
func (v *VMUpdates) extract(ctx context.Context, dir, bundle string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if _, ok := isUpdateBundle(path); ok && entry.Type().IsRegular() {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}

	if err := v.opts.Archive.ExtractAll(ctx, bundle, dir); err != nil {
		return err
	}
	logger.Info("Extracted appliance update", v.fields(logger.Fields{"file": filepath.Base(bundle)}))
	return nil
}

// RebuildIndex re-extracts the newest bundle of every appliance.
func (v *VMUpdates) RebuildIndex(ctx context.Context) error {
	dirs, err := fsutil.ListSubdirectories(v.root)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		latest, err := latestBundle(dir)
		if err != nil {
			return err
		}
		if latest == "" {
			continue
		}
		if err := v.extract(ctx, dir, latest); err != nil {
			return err
		}
	}
	return nil
}

func (v *VMUpdates) IterFiles() ([]string, error) {
	matches, err := fsutil.Glob(filepath.Join(v.root, "*", "*.zip"))
	if err != nil {
		return nil, err
	}
	bundles := matches[:0]
	for _, m := range matches {
		if _, ok := isUpdateBundle(m); ok {
			bundles = append(bundles, m)
		}
	}
	return bundles, nil
}
