//go:generate mockgen -destination=./mocks/manager.go . Manager

// Package hook runs operator-supplied Tengo scripts around artifact ingestion.
package hook

// Type names an ingestion event.
type Type string

const (
	// PreIngest runs after a file is parsed and before any indexer sees it.
	// A script that sets err rejects the artifact.
	PreIngest Type = "pre-ingest"
	// PostIngest runs after the indexers have consumed the artifact.
	PostIngest Type = "post-ingest"
)

// Types lists the supported events.
func Types() []Type {
	return []Type{PreIngest, PostIngest}
}

// Hook is a script bound to an event.
type Hook struct {
	Type    Type
	Content string
}

// Context is exposed to scripts as global variables.
type Context struct {
	Index        string
	Filename     string
	Path         string
	Name         string
	Version      string
	Platform     string
	Architecture string
	Extension    string
	// Indexers lists the indexer types that placed the artifact. Empty for PreIngest.
	Indexers []string
	Vars     map[string]interface{}
}

// Manager registers and runs hooks.
type Manager interface {
	Execute(hookType Type, ctx Context) error
	AddHook(hook Hook) error
	RemoveHook(hookType Type) error
	HasHook(hookType Type) bool
}
