// Package watcher drains incoming directories as uploads land in them.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
)

// DefaultDebounce is how long a directory has to stay quiet before it is drained.
const DefaultDebounce = 2 * time.Second

// Processor drains the incoming directory of one index.
type Processor interface {
	ProcessIncoming(ctx context.Context, index string) error
}

// Watcher triggers a Processor for every index whose incoming directory
// changed. Bursts of events are collapsed into one drain per index.
type Watcher struct {
	processor Processor
	dirs      map[string]string // directory -> index
	debounce  time.Duration
}

// New creates a watcher over dirs, a map from index name to its incoming
// directory.
func New(processor Processor, dirs map[string]string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	byDir := make(map[string]string, len(dirs))
	for index, dir := range dirs {
		byDir[filepath.Clean(dir)] = index
	}
	return &Watcher{processor: processor, dirs: byDir, debounce: debounce}
}

// Run drains every directory once and then on every change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	pending := make(map[string]bool, len(w.dirs))
	for dir, index := range w.dirs {
		if err := fsutil.EnsureDirPerm(dir, fsutil.DirModeSecure); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		pending[index] = true
		logger.Debug("Watching incoming directory", logger.Fields{"index": index, "dir": dir})
	}

	// Files that arrived while nobody was watching are drained right away.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			index, relevant := w.classify(event)
			if !relevant {
				continue
			}
			pending[index] = true
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", logger.Fields{"error": err.Error()})
		case <-timer.C:
			w.drain(ctx, pending)
			clear(pending)
		}
	}
}

// classify maps an event to its index. Dot files are uploads in progress.
func (w *Watcher) classify(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return "", false
	}
	index, ok := w.dirs[filepath.Dir(event.Name)]
	return index, ok
}

func (w *Watcher) drain(ctx context.Context, pending map[string]bool) {
	indexes := make([]string, 0, len(pending))
	for index := range pending {
		indexes = append(indexes, index)
	}
	sort.Strings(indexes)

	for _, index := range indexes {
		if ctx.Err() != nil {
			return
		}
		if err := w.processor.ProcessIncoming(ctx, index); err != nil {
			logger.Error("Failed to process incoming files", logger.Fields{"index": index, "error": err.Error()})
			continue
		}
		logger.Debug("Incoming directory drained", logger.Fields{"index": index})
	}
}
