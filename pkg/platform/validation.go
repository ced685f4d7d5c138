package platform

import (
	"crypto"
	"sort"
)

// aptCodenames lists the Ubuntu releases served by the APT indexer together
// with the strongest digest their apt can verify on Release signatures.
var aptCodenames = map[string]crypto.Hash{
	"lucid":   crypto.SHA1,
	"natty":   crypto.SHA1,
	"oneiric": crypto.SHA1,
	"precise": crypto.SHA1,
	"quantal": crypto.SHA1,
	"raring":  crypto.SHA1,
	"saucy":   crypto.SHA1,
	"trusty":  crypto.SHA256,
	"xenial":  crypto.SHA256,
	"bionic":  crypto.SHA256,
	"focal":   crypto.SHA256,
	"jammy":   crypto.SHA256,
	"noble":   crypto.SHA256,
}

// aptArchitectures maps canonical architectures to Debian architecture names.
var aptArchitectures = map[string]string{
	ArchX86: "i386",
	ArchX64: "amd64",
}

// yumPlatforms lists the RPM distributions served by the YUM indexer and the
// RPM architectures published for each.
var yumPlatforms = map[string][]string{
	"linux-redhat-5": {"i686", "x86_64"},
	"linux-redhat-6": {"i686", "x86_64"},
	"linux-redhat-7": {"x86_64"},
	"linux-redhat-8": {"x86_64"},
	"linux-centos-5": {"i686", "x86_64"},
	"linux-centos-6": {"i686", "x86_64"},
	"linux-centos-7": {"x86_64"},
	"linux-centos-8": {"x86_64"},
	"linux-suse-10":  {"i686", "x86_64"},
	"linux-suse-11":  {"i686", "x86_64"},
	"linux-suse-12":  {"x86_64"},
}

var yumArchitectures = map[string]string{
	ArchX86: "i686",
	ArchX64: "x86_64",
}

// APTDistributions returns the distribution names served by the APT indexer.
func APTDistributions() []string {
	return []string{PrefixUbuntu}
}

// APTCodenames returns the supported codenames, sorted.
func APTCodenames() []string {
	names := make([]string, 0, len(aptCodenames))
	for name := range aptCodenames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APTArchitectures returns the Debian architectures, sorted (amd64, i386).
func APTArchitectures() []string {
	archs := make([]string, 0, len(aptArchitectures))
	for _, a := range aptArchitectures {
		archs = append(archs, a)
	}
	sort.Strings(archs)
	return archs
}

// APTSupports reports whether the (distribution, arch) pair is in the APT matrix
// and returns the Debian architecture name.
func APTSupports(d Distribution, arch string) (string, bool) {
	if d.Name != PrefixUbuntu {
		return "", false
	}
	if _, ok := aptCodenames[d.Release]; !ok {
		return "", false
	}
	debArch, ok := aptArchitectures[arch]
	return debArch, ok
}

// ReleaseDigest returns the signature digest for a codename. Unknown codenames
// get SHA-256.
func ReleaseDigest(codename string) crypto.Hash {
	if h, ok := aptCodenames[codename]; ok {
		return h
	}
	return crypto.SHA256
}

// YUMPlatforms returns the YUM matrix platforms, sorted.
func YUMPlatforms() []string {
	names := make([]string, 0, len(yumPlatforms))
	for name := range yumPlatforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// YUMArchitectures returns the RPM architectures published for platform.
func YUMArchitectures(platform string) []string {
	return yumPlatforms[platform]
}

// YUMSupports reports whether platform/arch is in the YUM matrix and returns
// the RPM architecture name.
func YUMSupports(platform, arch string) (string, bool) {
	rpmArch, ok := yumArchitectures[arch]
	if !ok {
		return "", false
	}
	for _, a := range yumPlatforms[platform] {
		if a == rpmArch {
			return rpmArch, true
		}
	}
	return "", false
}
