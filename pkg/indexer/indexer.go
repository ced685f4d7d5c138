//go:generate mockgen -destination=./mocks/indexer.go . Indexer,Signer,Extractor

// Package indexer maintains one ecosystem's view of an index: the on-disk
// layout its package manager expects and the metadata derived from it.
//
// Every indexer owns <packages_dir>/<index>/<type>/. The tree below that
// root is the source of truth; metadata files are regenerated from it.
package indexer

import (
	"context"
	"crypto"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

// Indexer types in registry order.
const (
	TypeAPT       = "apt"
	TypeIndex     = "index"
	TypeYUM       = "yum"
	TypePython    = "python"
	TypeVMUpdates = "vmware-studio-updates"
	TypePyPI      = "pypi"
)

// Types returns every indexer type in registry order.
func Types() []string {
	return []string{TypeAPT, TypeIndex, TypeYUM, TypePython, TypeVMUpdates, TypePyPI}
}

// Indexer is the capability shared by every ecosystem.
type Indexer interface {
	Type() string
	// BaseDirectory is the root of the subtree this indexer owns.
	BaseDirectory() string
	// Initialise creates the directories and empty metadata an empty index
	// needs to be servable. It is idempotent.
	Initialise(ctx context.Context) error
	// Interested reports whether path belongs to this indexer. It inspects
	// the file's magic where the extension names a binary package format.
	Interested(path, platform, arch string) bool
	// Consume places path and updates metadata. A second Consume of the same
	// file reports fsutil.AlreadyExists and leaves metadata untouched.
	Consume(ctx context.Context, path, platform, arch string) (fsutil.Placement, error)
	// RebuildIndex regenerates all metadata from the files on disk.
	RebuildIndex(ctx context.Context) error
	// IterFiles lists the artifacts currently managed.
	IterFiles() ([]string, error)
}

// Signer signs artifacts and metadata.
type Signer interface {
	SignRPM(ctx context.Context, path string) error
	SignDEB(ctx context.Context, path string) error
	DetachSign(src, dest string, hash crypto.Hash) error
	ClearSign(src, dest string, hash crypto.Hash) error
	PublicKeyPath() string
}

// Extractor unpacks update bundles.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// Options carries the collaborators shared by the indexers of an index.
type Options struct {
	// PackagesDir is <base_directory>/packages.
	PackagesDir string
	// BaseDirectory is the served root. Published paths are relative to it.
	BaseDirectory string
	// BaseURL prefixes links in installation instructions.
	BaseURL string
	// Origin and Label are written into APT Release files.
	Origin string
	Label  string

	Runner  execute.Runner
	Signer  Signer
	Archive Extractor
}

// NewAll builds the indexers of index in registry order.
func NewAll(index string, opts Options) []Indexer {
	return []Indexer{
		NewAPT(index, opts),
		NewPretty(index, opts),
		NewYUM(index, opts),
		NewPython(index, opts),
		NewVMUpdates(index, opts),
		NewPyPI(index, opts),
	}
}

// New builds a single indexer by type.
func New(typ, index string, opts Options) (Indexer, bool) {
	switch typ {
	case TypeAPT:
		return NewAPT(index, opts), true
	case TypeIndex:
		return NewPretty(index, opts), true
	case TypeYUM:
		return NewYUM(index, opts), true
	case TypePython:
		return NewPython(index, opts), true
	case TypeVMUpdates:
		return NewVMUpdates(index, opts), true
	case TypePyPI:
		return NewPyPI(index, opts), true
	default:
		return nil, false
	}
}

type base struct {
	typ   string
	index string
	root  string
	opts  Options
}

func newBase(typ, index string, opts Options) base {
	return base{
		typ:   typ,
		index: index,
		root:  filepath.Join(opts.PackagesDir, index, typ),
		opts:  opts,
	}
}

func (b *base) Type() string          { return b.typ }
func (b *base) BaseDirectory() string { return b.root }

func (b *base) fields(extra logger.Fields) logger.Fields {
	f := logger.Fields{"index": b.index, "indexer": b.typ}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// publicPath renders path relative to the served root, with a leading slash.
func (b *base) publicPath(path string) string {
	rel, err := filepath.Rel(b.opts.BaseDirectory, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return "/" + filepath.ToSlash(rel)
}

func hasExtension(path, ext string) bool {
	return strings.HasSuffix(path, "."+ext)
}

// writeIfChanged rewrites path only when its content differs, so an
// unchanged file keeps its modification time.
func writeIfChanged(path string, data []byte) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && string(current) == string(data) {
		return false, nil
	}
	if err := fsutil.WriteFileAtomic(path, data, fsutil.FileModeDefault); err != nil {
		return false, err
	}
	return true, nil
}
