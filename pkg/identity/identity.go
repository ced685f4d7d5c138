// Package identity derives an artifact's identity from its filename.
//
// A filename is five fields joined by single separators:
//
//	<name>-<version>-<platform>-<architecture>.<extension>
//
// Every field has a closed grammar. Platform and architecture spellings are
// normalized so that equivalent filenames map to one canonical Identity.
// Parsing is pure: it never touches the filesystem.
package identity

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/glorpus-work/apprepo/pkg/errutils"
	"github.com/glorpus-work/apprepo/pkg/platform"
)

const (
	namePattern         = `(?P<name>[a-zA-Z]*[a-zA-Z\-_]+[0-9_]?[a-zA-Z\-_]+[a-zA-Z][0-9]?)`
	versionPattern      = `v?(?P<version>(?:[\d+\.]+)(?:-develop|-[0-9\.]+(?:_g[0-9a-f]{7})?|(?:(?:\.post\d+|\.post\d+\.|\.b\d+|\.post\d+\+|\.\d+\.|-\d+-|-develop-\d+-)(?:g[a-z0-9]{7})?))?)`
	platformPattern     = `(?P<platform>python|vmware-esx|custom|windows|aix-\d+\.\d+|solaris-\d+|linux-ubuntu-[a-z]+|linux-suse-\d+|linux-redhat-\d|linux-centos-\d|osx-\d+\.\d+|centos.el6|centos.el7|redhat.el6|redhat.el7)`
	architecturePattern = `(?P<arch>generic|docs|sdist|x86|x64|powerpc|sparc|x86_OVF10|x86_OVF10_UPDATE_ISO|x86_OVF10_UPDATE_ZIP|x64_OVF_10|x64_OVF_10_UPDATE_ISO|x64_OVF_10_UPDATE_ZIP|x64_dd|i686|x86_64)`
	extensionPattern    = `(?P<ext>bin|rpm|deb|msi|pkg\.gz|tar\.gz|ova|iso|zip|img|exe||so|dll|pdb|cpp|exp)`
)

var filenameRegexp = regexp.MustCompile(fmt.Sprintf(`^%s.%s.%s.%s\.?%s$`,
	namePattern, versionPattern, platformPattern, architecturePattern, extensionPattern))

// Identity is the canonical (name, version, platform, architecture, extension)
// tuple of an artifact.
type Identity struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Platform     string `json:"platform"`
	Architecture string `json:"architecture"`
	Extension    string `json:"extension"`
}

// Filename renders the canonical filename of the identity.
func (id Identity) Filename() string {
	name := fmt.Sprintf("%s-%s-%s-%s", id.Name, id.Version, id.Platform, id.Architecture)
	if id.Extension == "" {
		return name
	}
	return name + "." + id.Extension
}

// ParseError reports a filename outside the grammar.
type ParseError struct {
	Filename string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", errutils.ErrParseFailure, e.Filename)
}

// Unwrap makes errors.Is(err, errutils.ErrParseFailure) hold.
func (e *ParseError) Unwrap() error {
	return errutils.ErrParseFailure
}

// Parse maps the basename of path to its Identity.
func Parse(path string) (Identity, error) {
	filename := filepath.Base(path)
	match := filenameRegexp.FindStringSubmatch(filename)
	if match == nil {
		return Identity{}, &ParseError{Filename: filename}
	}

	groups := make(map[string]string, 5)
	for i, name := range filenameRegexp.SubexpNames() {
		if name != "" {
			groups[name] = match[i]
		}
	}

	return Identity{
		Name:         groups["name"],
		Version:      groups["version"],
		Platform:     platform.NormalizePlatform(groups["platform"], groups["ext"]),
		Architecture: platform.NormalizeArch(groups["arch"]),
		Extension:    groups["ext"],
	}, nil
}
