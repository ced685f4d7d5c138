package indexer

import (
	"context"
	"crypto"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/pkgtype"
	"github.com/glorpus-work/apprepo/pkg/platform"
)

const (
	repodataDir    = "repodata"
	repomdFile     = "repomd.xml"
	repomdSigFile  = "repomd.xml.asc"
	repomdKeyFile  = "repomd.xml.key"
	repomdSignHash = crypto.SHA256
)

var createrepoArgs = []string{
	"--simple-md-filenames", "--pretty", "--checksum=sha1", "--no-database",
	"--changelog-limit", "1", "--workers", "10",
}

// YUM publishes RPMs as <root>/<platform>-<arch>/ with createrepo metadata.
type YUM struct {
	base
}

// NewYUM creates the YUM indexer of index.
func NewYUM(index string, opts Options) *YUM {
	return &YUM{base: newBase(TypeYUM, index, opts)}
}

func (y *YUM) repoDir(platformName, rpmArch string) string {
	return filepath.Join(y.root, platformName+"-"+rpmArch)
}

func (y *YUM) matrixDirs() []string {
	var dirs []string
	for _, p := range platform.YUMPlatforms() {
		for _, a := range platform.YUMArchitectures(p) {
			dirs = append(dirs, y.repoDir(p, a))
		}
	}
	return dirs
}

// Initialise seeds every repository of the matrix with the public key and
// builds metadata for repositories that have none yet.
func (y *YUM) Initialise(ctx context.Context) error {
	for _, dir := range y.matrixDirs() {
		if err := fsutil.EnsureDir(filepath.Join(dir, repodataDir)); err != nil {
			return err
		}
		if err := y.publishKey(dir); err != nil {
			return err
		}
	}

	dirs, err := fsutil.ListSubdirectories(y.root)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if fsutil.Exists(filepath.Join(dir, repodataDir, repomdFile)) {
			continue
		}
		if err := y.createrepo(ctx, dir, false); err != nil {
			return err
		}
		if err := y.finish(dir); err != nil {
			return err
		}
	}
	return nil
}

func (y *YUM) publishKey(dir string) error {
	key := y.opts.Signer.PublicKeyPath()
	if !fsutil.Exists(key) {
		logger.Warn("Public key not available, repositories are published without it", y.fields(logger.Fields{"key": key}))
		return nil
	}
	_, err := fsutil.PlaceOrOverride(key, filepath.Join(dir, repodataDir, repomdKeyFile))
	return err
}

func (y *YUM) Interested(path, platformName, arch string) bool {
	if !hasExtension(path, "rpm") {
		return false
	}
	if _, ok := platform.YUMSupports(platformName, arch); !ok {
		return false
	}
	return pkgtype.IsRPM(path)
}

// Consume places and signs the RPM, then updates the repository metadata.
func (y *YUM) Consume(ctx context.Context, path, platformName, arch string) (fsutil.Placement, error) {
	rpmArch, ok := platform.YUMSupports(platformName, arch)
	if !ok {
		return fsutil.Placement{}, errutils.ErrNeglectedWithName(filepath.Base(path))
	}
	dir := y.repoDir(platformName, rpmArch)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fsutil.Placement{}, err
	}

	placement, err := fsutil.Place(path, dir)
	if err != nil || placement.Outcome == fsutil.AlreadyExists {
		return placement, err
	}

	if err := y.opts.Signer.SignRPM(ctx, placement.Path); err != nil {
		return placement, err
	}
	if err := y.updateIndex(ctx, dir); err != nil {
		return placement, err
	}

	logger.Info("Added package to yum repository", y.fields(logger.Fields{
		"file": filepath.Base(placement.Path),
		"repo": filepath.Base(dir),
	}))
	return placement, nil
}

// updateIndex tries an incremental createrepo first. Any failure is logged
// and answered with a full rebuild from an empty repodata directory.
func (y *YUM) updateIndex(ctx context.Context, dir string) error {
	if !fsutil.Exists(filepath.Join(dir, repodataDir, repomdFile)) {
		if err := y.createrepo(ctx, dir, false); err != nil {
			return err
		}
		return y.finish(dir)
	}

	if err := y.createrepo(ctx, dir, true); err != nil {
		logger.Warn("Incremental metadata update failed, rebuilding from scratch", y.fields(logger.Fields{
			"repo":  filepath.Base(dir),
			"error": fmt.Errorf("%w: %w", errutils.ErrIncrementalRebuild, err).Error(),
		}))
		if err := y.fullRebuild(ctx, dir); err != nil {
			return err
		}
	}
	return y.finish(dir)
}

func (y *YUM) fullRebuild(ctx context.Context, dir string) error {
	if err := os.RemoveAll(filepath.Join(dir, repodataDir)); err != nil {
		return err
	}
	return y.createrepo(ctx, dir, false)
}

func (y *YUM) createrepo(ctx context.Context, dir string, incremental bool) error {
	args := append([]string(nil), createrepoArgs...)
	if incremental {
		args = append(args, "--update", "--skip-stat")
	}
	_, err := y.opts.Runner.Run(ctx, execute.Command{Name: "createrepo", Args: append(args, dir)})
	return err
}

// finish re-seeds the public key and signs repomd.xml.
func (y *YUM) finish(dir string) error {
	if err := fsutil.EnsureDir(filepath.Join(dir, repodataDir)); err != nil {
		return err
	}
	if err := y.publishKey(dir); err != nil {
		return err
	}
	repomd := filepath.Join(dir, repodataDir, repomdFile)
	signature := filepath.Join(dir, repodataDir, repomdSigFile)
	if err := fsutil.RemoveIfExists(signature); err != nil {
		return err
	}
	if !fsutil.Exists(repomd) {
		return fmt.Errorf("%w: createrepo left no %s in %s", errutils.ErrExternalTool, repomdFile, dir)
	}
	return y.opts.Signer.DetachSign(repomd, signature, repomdSignHash)
}

// RebuildIndex recreates the metadata of every repository directory.
func (y *YUM) RebuildIndex(ctx context.Context) error {
	dirs, err := fsutil.ListSubdirectories(y.root)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := y.fullRebuild(ctx, dir); err != nil {
			return err
		}
		if err := y.finish(dir); err != nil {
			return err
		}
	}
	logger.Debug("Rebuilt yum metadata", y.fields(logger.Fields{"repositories": len(dirs)}))
	return nil
}

func (y *YUM) IterFiles() ([]string, error) {
	var files []string
	for _, dir := range y.matrixDirs() {
		matches, err := fsutil.Glob(filepath.Join(dir, "*.rpm"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}
