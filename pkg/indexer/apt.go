package indexer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/execute"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/pkgtype"
	"github.com/glorpus-work/apprepo/pkg/platform"
)

const (
	packagesFile   = "Packages"
	packagesGzFile = "Packages.gz"
	aptComponent   = "main"
)

// APT publishes Debian packages as
// <root>/<distro>/dists/<codename>/main/binary-<arch>/.
type APT struct {
	base
}

// NewAPT creates the APT indexer of index.
func NewAPT(index string, opts Options) *APT {
	return &APT{base: newBase(TypeAPT, index, opts)}
}

func (a *APT) distributionRoot(distro string) string {
	return filepath.Join(a.root, distro)
}

func (a *APT) codenameDir(distro, codename string) string {
	return filepath.Join(a.distributionRoot(distro), "dists", codename)
}

func (a *APT) binaryDir(distro, codename, debArch string) string {
	return filepath.Join(a.codenameDir(distro, codename), aptComponent, "binary-"+debArch)
}

// Initialise creates every binary directory of the support matrix with empty
// package lists and a signed Release per codename.
func (a *APT) Initialise(ctx context.Context) error {
	for _, distro := range platform.APTDistributions() {
		for _, codename := range platform.APTCodenames() {
			for _, debArch := range platform.APTArchitectures() {
				dir := a.binaryDir(distro, codename, debArch)
				if err := fsutil.EnsureDir(dir); err != nil {
					return err
				}
				if fsutil.Exists(filepath.Join(dir, packagesFile)) {
					continue
				}
				if err := a.writePackages(dir, nil); err != nil {
					return err
				}
			}
			if err := a.writeRelease(distro, codename); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *APT) target(platformName, arch string) (platform.Distribution, string, bool) {
	d, ok := platform.SplitDistribution(platformName)
	if !ok {
		return platform.Distribution{}, "", false
	}
	debArch, ok := platform.APTSupports(d, arch)
	return d, debArch, ok
}

func (a *APT) Interested(path, platformName, arch string) bool {
	if !hasExtension(path, "deb") {
		return false
	}
	if _, _, ok := a.target(platformName, arch); !ok {
		return false
	}
	return pkgtype.IsDeb(path)
}

// Consume places the package, signs it and appends its stanza to Packages.
func (a *APT) Consume(ctx context.Context, path, platformName, arch string) (fsutil.Placement, error) {
	d, debArch, ok := a.target(platformName, arch)
	if !ok {
		return fsutil.Placement{}, errutils.ErrNeglectedWithName(filepath.Base(path))
	}
	dir := a.binaryDir(d.Name, d.Release, debArch)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fsutil.Placement{}, err
	}

	placement, err := fsutil.Place(path, dir)
	if err != nil || placement.Outcome == fsutil.AlreadyExists {
		return placement, err
	}

	if err := a.opts.Signer.SignDEB(ctx, placement.Path); err != nil {
		return placement, err
	}

	stanza, err := a.scanSingle(ctx, placement.Path, d, debArch)
	if err != nil {
		return placement, err
	}

	current, err := os.ReadFile(filepath.Join(dir, packagesFile))
	if err != nil && !os.IsNotExist(err) {
		return placement, err
	}
	if err := a.writePackages(dir, appendStanza(current, stanza)); err != nil {
		return placement, err
	}
	if err := a.writeRelease(d.Name, d.Release); err != nil {
		return placement, err
	}

	logger.Info("Added package to apt repository", a.fields(logger.Fields{
		"file":     filepath.Base(placement.Path),
		"codename": d.Release,
		"arch":     debArch,
	}))
	return placement, nil
}

// scanSingle runs dpkg-scanpackages on a scratch directory holding only the
// new package and rewrites its Filename to the published location.
func (a *APT) scanSingle(ctx context.Context, path string, d platform.Distribution, debArch string) ([]byte, error) {
	scratch, err := os.MkdirTemp(a.distributionRoot(d.Name), ".scan-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	name := filepath.Base(path)
	if err := os.Link(path, filepath.Join(scratch, name)); err != nil {
		return nil, err
	}

	out, err := a.scan(ctx, scratch)
	if err != nil {
		return nil, err
	}
	published := filepath.ToSlash(filepath.Join("dists", d.Release, aptComponent, "binary-"+debArch)) + "/"
	return []byte(strings.ReplaceAll(out, scratch+"/", published)), nil
}

func (a *APT) scan(ctx context.Context, dir string) (string, error) {
	res, err := a.opts.Runner.Run(ctx, execute.Command{
		Name: "dpkg-scanpackages",
		Args: []string{"--multiversion", dir, "/dev/null"},
	})
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func appendStanza(current, stanza []byte) []byte {
	stanza = bytes.TrimLeft(stanza, "\n")
	if len(bytes.TrimSpace(current)) == 0 {
		return stanza
	}
	out := append([]byte(nil), current...)
	if !bytes.HasSuffix(out, []byte("\n\n")) {
		if !bytes.HasSuffix(out, []byte("\n")) {
			out = append(out, '\n')
		}
		out = append(out, '\n')
	}
	return append(out, stanza...)
}

// writePackages writes Packages and Packages.gz. Unchanged files are left
// alone so their modification time, and with it the Release date, is stable.
func (a *APT) writePackages(dir string, content []byte) error {
	if _, err := writeIfChanged(filepath.Join(dir, packagesFile), content); err != nil {
		return err
	}
	compressed, err := gzipDeterministic(content)
	if err != nil {
		return err
	}
	_, err = writeIfChanged(filepath.Join(dir, packagesGzFile), compressed)
	return err
}

// gzipDeterministic compresses data without a name or timestamp in the header.
func gzipDeterministic(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RebuildIndex rescans every binary directory and regenerates every Release.
func (a *APT) RebuildIndex(ctx context.Context) error {
	dirs, err := filepath.Glob(filepath.Join(a.root, "*", "dists", "*", aptComponent, "binary-*"))
	if err != nil {
		return err
	}
	releases := map[[2]string]bool{}
	for _, dir := range dirs {
		if !fsutil.IsDir(dir) {
			continue
		}
		codenameDir := filepath.Dir(filepath.Dir(dir))
		distRoot := filepath.Dir(filepath.Dir(codenameDir))

		out, err := a.scan(ctx, dir)
		if err != nil {
			return err
		}
		content := strings.ReplaceAll(out, distRoot+"/", "")
		if err := a.writePackages(dir, []byte(content)); err != nil {
			return err
		}
		releases[[2]string{filepath.Base(distRoot), filepath.Base(codenameDir)}] = true
	}

	for _, distro := range platform.APTDistributions() {
		for _, codename := range platform.APTCodenames() {
			if !releases[[2]string{distro, codename}] {
				continue
			}
			if err := a.writeRelease(distro, codename); err != nil {
				return err
			}
		}
	}
	logger.Debug("Rebuilt apt metadata", a.fields(logger.Fields{"directories": len(dirs)}))
	return nil
}

func (a *APT) IterFiles() ([]string, error) {
	return fsutil.Glob(filepath.Join(a.root, "*", "dists", "*", aptComponent, "binary-*", "*.deb"))
}
