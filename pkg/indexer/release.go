package indexer

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/platform"
	"github.com/glorpus-work/apprepo/pkg/signing"
)

const (
	releaseFile    = "Release"
	releaseGPGFile = "Release.gpg"
	inReleaseFile  = "InRelease"
)

type releaseEntry struct {
	path   string
	size   int64
	md5    string
	sha1   string
	sha256 string
}

// releaseEntries hashes every package list below a codename directory.
func releaseEntries(codenameDir string) ([]releaseEntry, time.Time, error) {
	var entries []releaseEntry
	var newest time.Time

	err := filepath.WalkDir(codenameDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (d.Name() != packagesFile && d.Name() != packagesGzFile) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		rel, err := filepath.Rel(codenameDir, path)
		if err != nil {
			return err
		}
		md5sum := md5.Sum(data)
		sha1sum := sha1.Sum(data)
		entries = append(entries, releaseEntry{
			path:   filepath.ToSlash(rel),
			size:   int64(len(data)),
			md5:    hex.EncodeToString(md5sum[:]),
			sha1:   hex.EncodeToString(sha1sum[:]),
			sha256: digest.SHA256.FromBytes(data).Encoded(),
		})
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	return entries, newest.UTC().Truncate(time.Second), err
}

func (a *APT) renderRelease(codename string, date time.Time, entries []releaseEntry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Origin: %s\n", a.opts.Origin)
	fmt.Fprintf(&b, "Label: %s\n", a.opts.Label)
	fmt.Fprintf(&b, "Codename: %s\n", codename)
	fmt.Fprintf(&b, "Date: %s\n", date.Format(time.RFC1123))
	fmt.Fprintf(&b, "Architectures: %s\n", strings.Join(platform.APTArchitectures(), " "))
	fmt.Fprintf(&b, "Components: %s\n", aptComponent)
	fmt.Fprintf(&b, "Description: %s %s\n", a.opts.Label, codename)

	sections := []struct {
		title string
		sum   func(releaseEntry) string
	}{
		{"MD5Sum", func(e releaseEntry) string { return e.md5 }},
		{"SHA1", func(e releaseEntry) string { return e.sha1 }},
		{"SHA256", func(e releaseEntry) string { return e.sha256 }},
	}
	for _, section := range sections {
		fmt.Fprintf(&b, "%s:\n", section.title)
		for _, e := range entries {
			fmt.Fprintf(&b, " %s %16d %s\n", section.sum(e), e.size, e.path)
		}
	}
	return []byte(b.String())
}

// writeRelease regenerates Release for a codename and signs it twice:
// detached as Release.gpg and inline as InRelease. The Release file takes
// the date of the newest package list as its modification time, so an
// unchanged tree reproduces the same files.
func (a *APT) writeRelease(distro, codename string) error {
	dir := a.codenameDir(distro, codename)
	entries, date, err := releaseEntries(dir)
	if err != nil {
		return err
	}

	release := filepath.Join(dir, releaseFile)
	if _, err := writeIfChanged(release, a.renderRelease(codename, date, entries)); err != nil {
		return err
	}
	if err := os.Chtimes(release, date, date); err != nil {
		return err
	}

	detached := filepath.Join(dir, releaseGPGFile)
	inline := filepath.Join(dir, inReleaseFile)
	for _, stale := range []string{detached, inline} {
		if err := fsutil.RemoveIfExists(stale); err != nil {
			return err
		}
	}
	hash := signing.DigestFor(codename)
	if err := a.opts.Signer.DetachSign(release, detached, hash); err != nil {
		return err
	}
	return a.opts.Signer.ClearSign(release, inline, hash)
}
