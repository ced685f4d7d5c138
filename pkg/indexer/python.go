package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/identity"
	"github.com/glorpus-work/apprepo/pkg/platform"
)

// Python keeps python-*.tar.gz interpreter builds in a flat directory.
type Python struct {
	base
}

// NewPython creates the flat Python indexer of index.
func NewPython(index string, opts Options) *Python {
	return &Python{base: newBase(TypePython, index, opts)}
}

func (p *Python) Initialise(context.Context) error {
	return fsutil.EnsureDir(p.root)
}

func (p *Python) Interested(path, _, _ string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "python-") && strings.HasSuffix(name, ".tar.gz")
}

func (p *Python) Consume(_ context.Context, path, _, _ string) (fsutil.Placement, error) {
	if err := fsutil.EnsureDir(p.root); err != nil {
		return fsutil.Placement{}, err
	}
	placement, err := fsutil.Place(path, p.root)
	if err == nil && placement.Outcome == fsutil.Placed {
		logger.Info("Added python build", p.fields(logger.Fields{"file": filepath.Base(path)}))
	}
	return placement, err
}

// RebuildIndex is a no-op: the directory listing is the index.
func (p *Python) RebuildIndex(context.Context) error { return nil }

func (p *Python) IterFiles() ([]string, error) {
	return fsutil.Glob(filepath.Join(p.root, "*.tar.gz"))
}

// PyPI serves source distributions as <root>/<name>/<name>-<version>.tar.gz,
// the layout pip expects from a simple index.
type PyPI struct {
	base
}

// NewPyPI creates the PyPI indexer of index.
func NewPyPI(index string, opts Options) *PyPI {
	return &PyPI{base: newBase(TypePyPI, index, opts)}
}

func (p *PyPI) Initialise(context.Context) error {
	return fsutil.EnsureDir(p.root)
}

func isSdist(id identity.Identity) bool {
	return id.Platform == platform.Python && id.Architecture == platform.ArchSdist
}

func (p *PyPI) Interested(path, _, _ string) bool {
	id, err := identity.Parse(path)
	return err == nil && isSdist(id)
}

func (p *PyPI) Consume(_ context.Context, path, _, _ string) (fsutil.Placement, error) {
	id, err := identity.Parse(path)
	if err != nil {
		return fsutil.Placement{}, err
	}
	dir := filepath.Join(p.root, id.Name)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fsutil.Placement{}, err
	}
	dest := filepath.Join(dir, fmt.Sprintf("%s-%s.tar.gz", id.Name, id.Version))
	placement, err := fsutil.Place(path, dest)
	if err == nil && placement.Outcome == fsutil.Placed {
		logger.Info("Added source distribution", p.fields(logger.Fields{"package": id.Name, "version": id.Version}))
	}
	return placement, err
}

// RebuildIndex is a no-op: pip reads the directory listing.
func (p *PyPI) RebuildIndex(context.Context) error { return nil }

func (p *PyPI) IterFiles() ([]string, error) {
	return fsutil.Glob(filepath.Join(p.root, "*", "*.tar.gz"))
}
