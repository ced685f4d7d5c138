package platform

import (
	"strings"
)

// NormalizePlatform returns the canonical platform token for a parsed platform
// and extension pair.
func NormalizePlatform(platform, extension string) string {
	if forced, ok := platformByExtension[extension]; ok {
		return forced
	}
	if canonical, ok := platformAliases[platform]; ok {
		return canonical
	}
	return platform
}

// NormalizeArch returns the canonical architecture token.
func NormalizeArch(arch string) string {
	if canonical, ok := architectureAliases[arch]; ok {
		return canonical
	}
	return arch
}

// Distribution is a platform token split into its distribution prefix and
// release, e.g. linux-ubuntu-trusty → {linux-ubuntu, trusty}.
type Distribution struct {
	Name    string
	Release string
}

// SplitDistribution splits a platform token at its last hyphen. Tokens without
// a release component return ok=false.
func SplitDistribution(platform string) (Distribution, bool) {
	i := strings.LastIndex(platform, "-")
	if i <= 0 || i == len(platform)-1 {
		return Distribution{}, false
	}
	return Distribution{Name: platform[:i], Release: platform[i+1:]}, true
}

// String joins the distribution back into a platform token.
func (d Distribution) String() string {
	return d.Name + "-" + d.Release
}

// Family groups platforms by the package manager their users run.
type Family string

const (
	FamilyRedHat  Family = "redhat"
	FamilyUbuntu  Family = "ubuntu"
	FamilySUSE    Family = "suse"
	FamilyWindows Family = "windows"
	FamilyVMware  Family = "vmware"
	FamilySolaris Family = "solaris"
	FamilyAIX     Family = "aix"
	FamilyOSX     Family = "osx"
	FamilyPython  Family = "python"
	FamilyUnknown Family = ""
)

// FamilyOf classifies a canonical platform token.
func FamilyOf(platform string) Family {
	switch {
	case strings.HasPrefix(platform, PrefixRedHat), strings.HasPrefix(platform, PrefixCentOS):
		return FamilyRedHat
	case strings.HasPrefix(platform, PrefixUbuntu):
		return FamilyUbuntu
	case strings.HasPrefix(platform, PrefixSUSE):
		return FamilySUSE
	case platform == Windows:
		return FamilyWindows
	case platform == VMwareESX:
		return FamilyVMware
	case strings.HasPrefix(platform, PrefixSolaris):
		return FamilySolaris
	case strings.HasPrefix(platform, PrefixAIX):
		return FamilyAIX
	case strings.HasPrefix(platform, PrefixOSX):
		return FamilyOSX
	case platform == Python:
		return FamilyPython
	default:
		return FamilyUnknown
	}
}

// IsUpdateBundle reports whether arch denotes a VM appliance update zip.
func IsUpdateBundle(arch string) bool {
	return strings.HasSuffix(arch, UpdateZipSuffix)
}
