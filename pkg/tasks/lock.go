// Package tasks serializes mutating operations on the repository tree and
// fans independent work out to a bounded pool.
package tasks

import (
	"fmt"
	"sync"

	"github.com/fluxcd/pkg/lockedfile"

	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

// Lock is held by every operation that mutates the tree. It combines an
// in-process mutex with a lock file, so the CLI and a running watcher
// serialize on the same base directory.
type Lock struct {
	mu   sync.Mutex
	path string
}

// NewLock creates a lock backed by the file at path.
func NewLock(path string) *Lock {
	return &Lock{path: path}
}

// Path is the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held and returns its release function.
func (l *Lock) Acquire() (func(), error) {
	l.mu.Lock()
	if err := fsutil.EnsureFileDir(l.path); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	unlock, err := lockedfile.MutexAt(l.path).Lock()
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlock()
			l.mu.Unlock()
		})
	}, nil
}

// With runs fn while holding the lock.
func (l *Lock) With(fn func() error) error {
	release, err := l.Acquire()
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
