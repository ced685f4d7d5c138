package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/index"
	"github.com/glorpus-work/apprepo/pkg/indexer"
	"github.com/glorpus-work/apprepo/pkg/tasks"
	"github.com/glorpus-work/apprepo/pkg/version"
)

// RebuildIndex regenerates the metadata of one indexer of index, or of all
// of them when typ is empty.
func (o *Orchestrator) RebuildIndex(ctx context.Context, indexName, typ string) error {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return err
	}
	selected, err := idx.Select(typ)
	if err != nil {
		return err
	}

	release, err := o.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	return o.rebuild(ctx, idx, selected)
}

func (o *Orchestrator) rebuild(ctx context.Context, idx *index.Index, selected []indexer.Indexer) error {
	for _, ix := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		started := time.Now()
		if err := ix.RebuildIndex(ctx); err != nil {
			return errutils.Wrapf(err, "failed to rebuild %s/%s", idx.Name, ix.Type())
		}
		o.metrics.Rebuild(idx.Name, ix.Type(), time.Since(started).Seconds())
		logger.Info("Index rebuilt", logger.Fields{"index": idx.Name, "indexer": ix.Type()})
		emit(o.events, Event{Phase: "rebuild", Index: idx.Name, Msg: ix.Type()})
	}
	return nil
}

// GetArtifacts lists the files managed by one indexer of index, or by all of
// them when typ is empty.
func (o *Orchestrator) GetArtifacts(indexName, typ string) ([]string, error) {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return nil, err
	}
	selected, err := idx.Select(typ)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ix := range selected {
		found, err := ix.IterFiles()
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to list %s/%s", idx.Name, ix.Type())
		}
		files = append(files, found...)
	}
	return files, nil
}

// Packages reads the aggregate listing of the generic tree of index.
func (o *Orchestrator) Packages(indexName string) ([]indexer.Package, error) {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return nil, err
	}
	ix, err := idx.Indexer(indexer.TypeIndex)
	if err != nil {
		return nil, err
	}
	reader, ok := ix.(interface {
		ReadPackages() ([]indexer.Package, error)
	})
	if !ok {
		return nil, errutils.ErrIndexerNotFoundWithType(idx.Name, indexer.TypeIndex)
	}
	return reader.ReadPackages()
}

// resolveArtifact maps path to a regular file below the packages directory.
// Relative paths are taken relative to it.
func (o *Orchestrator) resolveArtifact(path string) (string, error) {
	root := filepath.Clean(o.layout.PackagesDir)
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errutils.ErrOutsideRepositoryWithPath(path)
	}
	// A symlinked component may still escape the root.
	joined, err := securejoin.SecureJoin(root, rel)
	if err != nil || joined != target {
		return "", errutils.ErrOutsideRepositoryWithPath(path)
	}
	info, err := os.Lstat(target)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errutils.Wrap(errutils.ErrNotAFile, path)
	}
	return target, nil
}

// DeleteArtifact removes a single file below the packages directory. The
// metadata is left as is until the next rebuild.
func (o *Orchestrator) DeleteArtifact(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release, err := o.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()

	target, err := o.resolveArtifact(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		return errutils.Wrapf(err, "failed to delete %s", target)
	}
	logger.Info("Artifact deleted", logger.Fields{"path": target})
	emit(o.events, Event{Phase: "delete", File: target})
	return nil
}

// ResignPackages signs every RPM and Debian package of every index again.
func (o *Orchestrator) ResignPackages(ctx context.Context) error {
	release, err := o.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	return o.resign(ctx)
}

func (o *Orchestrator) resign(ctx context.Context) error {
	var packages []string
	for _, idx := range o.registry.All() {
		for _, ix := range idx.Indexers {
			files, err := ix.IterFiles()
			if err != nil {
				return errutils.Wrapf(err, "failed to list %s/%s", idx.Name, ix.Type())
			}
			for _, f := range files {
				switch filepath.Ext(f) {
				case ".rpm", ".deb":
					packages = append(packages, f)
				}
			}
		}
	}
	packages = uniqueSorted(packages)

	var done atomic.Int64
	err := tasks.Run(ctx, o.signConcurrency, packages, func(ctx context.Context, path string) error {
		var err error
		if filepath.Ext(path) == ".rpm" {
			err = o.signer.SignRPM(ctx, path)
		} else {
			err = o.signer.SignDEB(ctx, path)
		}
		o.metrics.Resigned(err == nil)
		if err != nil {
			return errutils.Wrapf(err, "failed to sign %s", path)
		}
		n := done.Add(1)
		logger.Debug("Package signed", logger.Fields{"path": path, "done": n, "total": len(packages)})
		emit(o.events, Event{Phase: "resign", File: path})
		return nil
	})
	if err != nil {
		return err
	}
	logger.Success("Packages re-signed", logger.Fields{"count": len(packages)})
	return nil
}

func uniqueSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// AddIndex registers a new index and prepares it like Setup would.
func (o *Orchestrator) AddIndex(ctx context.Context, name string) error {
	release, err := o.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()

	idx, err := o.registry.Add(name)
	if err != nil {
		return err
	}
	if err := o.ensureIndexDirs(idx.Name); err != nil {
		return err
	}
	return idx.Initialise(ctx)
}

// RemoveIndex unregisters an index. Its files stay on disk.
func (o *Orchestrator) RemoveIndex(name string) error {
	return o.lock.With(func() error {
		return o.registry.Remove(name)
	})
}

// DeleteMatching removes the artifacts of index whose basename matches re
// and rebuilds the indexers that lost files. With dryRun nothing changes.
func (o *Orchestrator) DeleteMatching(ctx context.Context, indexName, typ string, re *regexp.Regexp, dryRun bool) ([]string, error) {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return nil, err
	}
	selected, err := idx.Select(typ)
	if err != nil {
		return nil, err
	}

	release, err := o.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var matched []string
	var affected []indexer.Indexer
	for _, ix := range selected {
		files, err := ix.IterFiles()
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to list %s/%s", idx.Name, ix.Type())
		}
		hit := false
		for _, f := range files {
			if !re.MatchString(filepath.Base(f)) {
				continue
			}
			matched = append(matched, f)
			hit = true
			if dryRun {
				continue
			}
			if err := fsutil.RemoveIfExists(f); err != nil {
				return matched, errutils.Wrapf(err, "failed to delete %s", f)
			}
			emit(o.events, Event{Phase: "delete", Index: idx.Name, File: f})
		}
		if hit {
			affected = append(affected, ix)
		}
	}
	if dryRun || len(affected) == 0 {
		return matched, nil
	}
	return matched, o.rebuild(ctx, idx, affected)
}

// CleanupOldVersions keeps only the newest release of every package in the
// generic tree of index and rebuilds its listing. Releases that differ only
// by a Debian revision are ordered by that revision.
func (o *Orchestrator) CleanupOldVersions(ctx context.Context, indexName string, dryRun bool) ([]string, error) {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return nil, err
	}
	ix, err := idx.Indexer(indexer.TypeIndex)
	if err != nil {
		return nil, err
	}

	release, err := o.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	packageDirs, err := fsutil.ListSubdirectories(filepath.Join(ix.BaseDirectory(), "packages"))
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, pkgDir := range packageDirs {
		releaseDirs, err := fsutil.ListSubdirectories(filepath.Join(pkgDir, "releases"))
		if err != nil {
			return removed, err
		}
		stale := staleReleases(releaseDirs)
		for _, dir := range stale {
			removed = append(removed, dir)
			if dryRun {
				continue
			}
			if err := os.RemoveAll(dir); err != nil {
				return removed, errutils.Wrapf(err, "failed to remove %s", dir)
			}
			logger.Info("Old release removed", logger.Fields{"index": idx.Name, "path": dir})
			emit(o.events, Event{Phase: "delete", Index: idx.Name, File: dir})
		}
	}
	if dryRun || len(removed) == 0 {
		return removed, nil
	}
	return removed, o.rebuild(ctx, idx, []indexer.Indexer{ix})
}

// staleReleases returns every release directory except the newest.
func staleReleases(dirs []string) []string {
	if len(dirs) < 2 {
		return nil
	}
	sorted := append([]string(nil), dirs...)
	version.SortDescending(sorted, filepath.Base, version.CompareIgnoringRevision)
	return sorted[1:]
}

// ProcessRejected moves a file from rejected/<index> back to incoming and
// ingests it again. Without a platform both are taken from the filename.
func (o *Orchestrator) ProcessRejected(ctx context.Context, indexName, filename, platformName, arch string) error {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return err
	}
	name := filepath.Base(filename)
	src := filepath.Join(o.layout.Rejected(idx.Name), name)
	if !fsutil.IsRegularFile(src) {
		return errutils.Wrap(errutils.ErrNotAFile, src)
	}
	dest := filepath.Join(o.layout.Incoming(idx.Name), name)
	if err := o.lock.With(func() error {
		if err := fsutil.EnsureDir(o.layout.Incoming(idx.Name)); err != nil {
			return err
		}
		return fsutil.Move(src, dest)
	}); err != nil {
		return errutils.Wrapf(err, "failed to restore %s", name)
	}

	if platformName == "" {
		return o.ProcessFilepathByName(ctx, idx.Name, dest)
	}
	return o.ProcessFilepath(ctx, idx.Name, dest, platformName, arch)
}
