// Package orchestrator drives artifacts through the indexers of an index and
// exposes the service operations of the repository.
//
// Every operation that mutates the tree holds the service lock for its whole
// duration. Read-only operations do not take it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/hook"
	"github.com/glorpus-work/apprepo/pkg/identity"
	"github.com/glorpus-work/apprepo/pkg/index"
	"github.com/glorpus-work/apprepo/pkg/indexer"
	"github.com/glorpus-work/apprepo/pkg/metrics"
	"github.com/glorpus-work/apprepo/pkg/signing"
	"github.com/glorpus-work/apprepo/pkg/tasks"
)

// DefaultSignConcurrency is the size of the re-signing pool.
const DefaultSignConcurrency = 4

// Orchestrator ties the index registry, the signing key and the service lock
// together.
type Orchestrator struct {
	layout          Layout
	registry        *index.Registry
	keys            KeyManager
	signer          PackageSigner
	lock            *tasks.Lock
	hooks           hook.Manager
	metrics         *metrics.Recorder
	events          Events
	signConcurrency int
}

// New constructs an Orchestrator. Hooks, metrics and events are optional.
func New(layout Layout, registry *index.Registry, keys KeyManager, signer PackageSigner, lock *tasks.Lock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		layout:          layout,
		registry:        registry,
		keys:            keys,
		signer:          signer,
		lock:            lock,
		signConcurrency: DefaultSignConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the index registry.
func (o *Orchestrator) Registry() *index.Registry {
	return o.registry
}

// Setup prepares every index for ingestion: directories, the signing key,
// the published public key and the empty metadata of every indexer. A newly
// generated key invalidates all signatures, so every package is re-signed and
// all metadata rebuilt.
func (o *Orchestrator) Setup(ctx context.Context) error {
	release, err := o.lock.Acquire()
	if err != nil {
		logger.Error("Failed to acquire repository lock, upload left in incoming", logger.Fields{
			"index": idx.Name,
			"file":  path,
			"error": err.Error(),
		})
		return errutils.Wrapf(err, "failed to process %s", filepath.Base(path))
	}
	defer release()

	emit(o.events, Event{Phase: "setup", Msg: "preparing directories"})
	for _, idx := range o.registry.All() {
		if err := o.ensureIndexDirs(idx.Name); err != nil {
			return err
		}
	}

	fresh, err := o.keys.Ensure(ctx)
	if err != nil {
		return errutils.Wrap(err, "failed to prepare signing key")
	}
	if _, err := o.keys.Publish(filepath.Join(o.layout.BaseDirectory, signing.PublicKeyFile)); err != nil {
		return errutils.Wrap(err, "failed to publish public key")
	}

	for _, idx := range o.registry.All() {
		emit(o.events, Event{Phase: "setup", Index: idx.Name, Msg: "initialising indexers"})
		if err := idx.Initialise(ctx); err != nil {
			return err
		}
	}

	if fresh {
		logger.Info("New signing key generated, re-signing every package")
		if err := o.resign(ctx); err != nil {
			return err
		}
		for _, idx := range o.registry.All() {
			if err := o.rebuild(ctx, idx, idx.Indexers); err != nil {
				return err
			}
		}
	}
	emit(o.events, Event{Phase: "done", Msg: "setup"})
	return nil
}

func (o *Orchestrator) ensureIndexDirs(name string) error {
	for _, dir := range []string{o.layout.Incoming(name), o.layout.Rejected(name)} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return errutils.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

// ProcessFilepath ingests path into index for the given platform and
// architecture. Whatever the outcome, path is removed afterwards; on failure
// it is first kept in the rejected directory of the index.
func (o *Orchestrator) ProcessFilepath(ctx context.Context, indexName, path, platformName, arch string) error {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return err
	}
	return o.processFile(ctx, idx, path, platformName, arch)
}

// ProcessFilepathByName is ProcessFilepath with platform and architecture
// taken from the filename. An unparseable name is rejected.
func (o *Orchestrator) ProcessFilepathByName(ctx context.Context, indexName, path string) error {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return err
	}
	id, err := identity.Parse(path)
	if err != nil {
		o.rejectUnparseable(idx.Name, path, err)
		return err
	}
	return o.processFile(ctx, idx, path, id.Platform, id.Architecture)
}

// ProcessIncoming drains incoming/<index>. A failing file does not stop the
// batch; the errors of all files are returned together. Dot files are
// uploads in progress and are left alone.
func (o *Orchestrator) ProcessIncoming(ctx context.Context, indexName string) error {
	idx, err := o.registry.Get(indexName)
	if err != nil {
		return err
	}
	files, err := fsutil.ListRegularFiles(o.layout.Incoming(idx.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errutils.Wrapf(err, "failed to list incoming files of %s", idx.Name)
	}

	var errs []error
	for _, path := range files {
		if strings.HasPrefix(filepath.Base(path), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		id, err := identity.Parse(path)
		if err != nil {
			o.rejectUnparseable(idx.Name, path, err)
			errs = append(errs, err)
			continue
		}
		if err := o.processFile(ctx, idx, path, id.Platform, id.Architecture); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) processFile(ctx context.Context, idx *index.Index, path, platformName, arch string) (err error) {
	release, err := o.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	defer func() { o.finish(idx.Name, path, err) }()

	return o.ingest(ctx, idx, path, platformName, arch)
}

func (o *Orchestrator) rejectUnparseable(indexName, path string, cause error) {
	_ = o.lock.With(func() error {
		o.finish(indexName, path, cause)
		return nil
	})
}

// finish keeps a failed artifact in the rejected directory and removes the
// original. Neither step can fail the operation.
func (o *Orchestrator) finish(indexName, path string, cause error) {
	if cause != nil {
		o.reject(indexName, path, cause)
	}
	if err := fsutil.RemoveIfExists(path); err != nil {
		logger.Error("Failed to remove processed file", logger.Fields{"index": indexName, "file": path, "error": err.Error()})
	}
}

func (o *Orchestrator) reject(indexName, path string, cause error) {
	outcome := metrics.OutcomeRejected
	if errors.Is(cause, errutils.ErrNeglectedByAllIndexers) {
		outcome = metrics.OutcomeNeglected
	}
	o.metrics.Artifact(indexName, outcome)
	fields := logger.Fields{"index": indexName, "file": filepath.Base(path), "error": cause.Error()}
	logger.Error("Rejecting artifact", fields)
	emit(o.events, Event{Phase: "reject", Index: indexName, File: filepath.Base(path), Msg: cause.Error()})

	dir := o.layout.Rejected(indexName)
	if err := fsutil.EnsureDir(dir); err != nil {
		fields["error"] = err.Error()
		logger.Warn("Rejected artifact could not be kept", fields)
		return
	}
	if _, err := fsutil.PlaceOrOverride(path, dir); err != nil {
		fields["error"] = err.Error()
		logger.Warn("Rejected artifact could not be kept", fields)
	}
}

func hookContext(indexName, path, platformName, arch string) hook.Context {
	hctx := hook.Context{
		Index:        indexName,
		Filename:     filepath.Base(path),
		Path:         path,
		Platform:     platformName,
		Architecture: arch,
	}
	if id, err := identity.Parse(path); err == nil {
		hctx.Name = id.Name
		hctx.Version = id.Version
		hctx.Extension = id.Extension
	}
	return hctx
}

func (o *Orchestrator) runHook(hookType hook.Type, hctx hook.Context) error {
	if o.hooks == nil {
		return nil
	}
	return o.hooks.Execute(hookType, hctx)
}

// ingest offers the artifact to every interested indexer. A collision in one
// indexer does not stop the others; any other error aborts the artifact.
func (o *Orchestrator) ingest(ctx context.Context, idx *index.Index, path, platformName, arch string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filename := filepath.Base(path)
	hctx := hookContext(idx.Name, path, platformName, arch)
	if err := o.runHook(hook.PreIngest, hctx); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrRejectedByHook, err)
	}

	var interested []indexer.Indexer
	for _, ix := range idx.Indexers {
		if ix.Interested(path, platformName, arch) {
			interested = append(interested, ix)
		}
	}
	if len(interested) == 0 {
		return errutils.ErrNeglectedWithName(filename)
	}

	var placed []string
	for _, ix := range interested {
		placement, err := ix.Consume(ctx, path, platformName, arch)
		if err != nil {
			return errutils.Wrapf(err, "%s indexer failed to consume %s", ix.Type(), filename)
		}
		if placement.Outcome == fsutil.AlreadyExists {
			o.metrics.Collision(idx.Name, ix.Type())
			logger.Warn("Artifact already present, skipping", logger.Fields{
				"index": idx.Name, "indexer": ix.Type(), "path": placement.Path,
			})
			emit(o.events, Event{Phase: "collision", Index: idx.Name, File: filename, Msg: ix.Type()})
			continue
		}
		o.metrics.Placement(idx.Name, ix.Type())
		placed = append(placed, ix.Type())
	}

	o.metrics.Artifact(idx.Name, metrics.OutcomeIngested)
	logger.Success("Artifact ingested", logger.Fields{"index": idx.Name, "file": filename, "indexers": strings.Join(placed, ",")})
	emit(o.events, Event{Phase: "ingest", Index: idx.Name, File: filename, Msg: strings.Join(placed, ",")})

	hctx.Indexers = placed
	if err := o.runHook(hook.PostIngest, hctx); err != nil {
		logger.Warn("Post-ingest hook failed", logger.Fields{"index": idx.Name, "file": filename, "error": err.Error()})
	}
	return nil
}
