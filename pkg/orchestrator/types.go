//go:generate mockgen -destination=./mocks/orchestrator.go . KeyManager,PackageSigner

package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/glorpus-work/apprepo/pkg/hook"
	"github.com/glorpus-work/apprepo/pkg/metrics"
)

// KeyManager is the subset of the signing keyring used by the orchestrator.
type KeyManager interface {
	// Ensure makes the signing key available and reports whether it was
	// generated by this call.
	Ensure(ctx context.Context) (bool, error)
	// Publish exports the public key to dest.
	Publish(dest string) (string, error)
}

// PackageSigner re-signs packages in place.
type PackageSigner interface {
	SignRPM(ctx context.Context, path string) error
	SignDEB(ctx context.Context, path string) error
}

// Layout locates the service directories below the base directory.
type Layout struct {
	// BaseDirectory receives the published public key.
	BaseDirectory string
	PackagesDir   string
	IncomingRoot  string
	RejectedRoot  string
}

// Incoming is the upload directory of index.
func (l Layout) Incoming(index string) string { return filepath.Join(l.IncomingRoot, index) }

// Rejected holds the artifacts of index that failed ingestion.
func (l Layout) Rejected(index string) string { return filepath.Join(l.RejectedRoot, index) }

// Event is a progress notification.
type Event struct {
	Phase string // setup|ingest|collision|reject|rebuild|resign|delete|done
	Index string
	File  string
	Msg   string
}

// Events carries callbacks for progress events.
type Events struct {
	OnEvent func(Event)
}

func emit(e Events, ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHooks runs pre- and post-ingest hooks through m.
func WithHooks(m hook.Manager) Option {
	return func(o *Orchestrator) { o.hooks = m }
}

// WithMetrics records ingestion outcomes with r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithEvents delivers progress notifications.
func WithEvents(e Events) Option {
	return func(o *Orchestrator) { o.events = e }
}

// WithSignConcurrency bounds the re-signing worker pool.
func WithSignConcurrency(n int) Option {
	return func(o *Orchestrator) { o.signConcurrency = n }
}
