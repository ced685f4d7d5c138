package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// Outcome tags the result of a placement.
type Outcome int

const (
	// Placed means a new directory entry was created.
	Placed Outcome = iota
	// AlreadyExists means the destination was occupied and left untouched.
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Placed:
		return "placed"
	case AlreadyExists:
		return "already-exists"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Placement is the tagged result of Place. A collision is not an error: the
// caller decides whether to continue with other work.
type Placement struct {
	Path    string
	Outcome Outcome
}

// Err converts a collision into errutils.ErrAlreadyExists for callers that
// need an error value. A successful placement returns nil.
func (p Placement) Err() error {
	if p.Outcome == AlreadyExists {
		return errutils.ErrAlreadyExistsWithPath(p.Path)
	}
	return nil
}

// resolveDestination maps a directory destination to dest/basename(src).
func resolveDestination(src, dest string) string {
	if IsDir(dest) {
		return filepath.Join(dest, filepath.Base(src))
	}
	return dest
}

// Place hard links src at dest. If dest is a directory the link is created as
// dest/basename(src). An occupied destination yields AlreadyExists.
func Place(src, dest string) (Placement, error) {
	target := resolveDestination(src, dest)
	if Exists(target) {
		return Placement{Path: target, Outcome: AlreadyExists}, nil
	}
	if err := EnsureFileDir(target); err != nil {
		return Placement{}, fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	if err := os.Link(src, target); err != nil {
		if os.IsExist(err) {
			return Placement{Path: target, Outcome: AlreadyExists}, nil
		}
		return Placement{}, fmt.Errorf("failed to link %s to %s: %w", src, target, err)
	}
	return Placement{Path: target, Outcome: Placed}, nil
}

// PlaceOrOverride hard links src at dest, replacing whatever is there. It is
// meant for non-artifact files such as the published public key.
func PlaceOrOverride(src, dest string) (string, error) {
	target := resolveDestination(src, dest)
	if err := EnsureFileDir(target); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".link")
	_ = os.Remove(tmp)
	if err := os.Link(src, tmp); err != nil {
		return "", fmt.Errorf("failed to link %s to %s: %w", src, tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return target, nil
}
