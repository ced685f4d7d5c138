package hook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/apprepo/internal/logger"
)

// Extension is the file extension of hook scripts.
const Extension = ".tengo"

// LoadDir registers <dir>/<event>.tengo for every supported event. A missing
// directory or script is not an error.
func LoadDir(manager Manager, dir string) error {
	if dir == "" {
		return nil
	}
	for _, hookType := range Types() {
		path := filepath.Join(dir, string(hookType)+Extension)
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading hook file %s: %w", path, err)
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return fmt.Errorf("error adding hook %s: %w", hookType, err)
		}
		logger.Debug("Loaded hook", logger.Fields{"event": hookType, "path": path})
	}
	return nil
}

// Template returns a commented starting point for a hook script.
func Template(hookType Type) string {
	switch hookType {
	case PreIngest:
		return `// Pre-ingest hook
// Runs before any indexer sees the artifact.
// Available variables:
// - index: string - index receiving the artifact
// - filename, path: string - the uploaded file
// - name, version, platform, architecture, extension: string - parsed identity
//
// Assign err to reject the artifact; it is moved to rejected/<index>/.
/*
text := import("text")
if text.has_prefix(name, "internal-") && index == "public" {
    err = "internal packages are not published on the public index"
}
*/`
	case PostIngest:
		return `// Post-ingest hook
// Runs after the indexers consumed the artifact.
// Available variables: same as pre-ingest, plus
// - indexers: array - types of the indexers that placed the artifact
/*
fmt := import("fmt")
fmt.println(filename, "published by", indexers)
*/`
	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
