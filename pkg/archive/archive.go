// Package archive unpacks the update bundles served by the VM
// appliance updates indexer. Extraction is confined to the destination
// directory: entry names and symlinks can never reach outside of it.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/mholt/archives"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

// Manager extracts archives.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// ExtractAll extracts every entry of archivePath below destDir.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	count := 0
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		count++
		return am.extractEntry(fsys, path, destDir, d)
	})
	if err != nil {
		return err
	}
	logger.Debug("Extracted archive", logger.Fields{"archive": filepath.Base(archivePath), "entries": count, "dest": destDir})
	return nil
}

func (am *Manager) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	targetPath, err := securejoin.SecureJoin(destDir, path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s inside %s: %w", path, destDir, err)
	}

	if d.IsDir() {
		return fsutil.EnsureDir(targetPath)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, path, targetPath, destDir)
	}
	return am.writeRegularFile(fsys, path, targetPath, info)
}

// writeSymlink recreates a symlink entry. Links that would resolve outside
// destDir are skipped.
func (am *Manager) writeSymlink(fsys fs.FS, path, targetPath, destDir string) error {
	link, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", path, err)
	}
	defer func() { _ = link.Close() }()

	targetBytes, err := io.ReadAll(link)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", path, err)
	}
	linkTarget := string(targetBytes)

	resolved := filepath.Join(filepath.Dir(targetPath), linkTarget)
	rel, err := filepath.Rel(destDir, resolved)
	if filepath.IsAbs(linkTarget) || err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		logger.Warn("Skipping symlink pointing outside of the extraction directory", logger.Fields{"entry": path, "target": linkTarget})
		return nil
	}

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", path, err)
	}
	_ = os.Remove(targetPath)
	return os.Symlink(linkTarget, targetPath)
}

func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	src, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	perm := info.Mode().Perm()
	if perm == 0 {
		perm = fsutil.FileModeDefault
	}
	dst, err := fsutil.CreateFilePerm(targetPath, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy archive entry %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if err := os.Chmod(targetPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
