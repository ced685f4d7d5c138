// Package platform holds the platform and architecture vocabulary of the
// repository: the canonical tokens produced by the identity parser, the
// normalization tables that collapse alternative spellings onto them and the
// support matrices of the APT and YUM indexers.
package platform

// Canonical platform tokens and prefixes.
const (
	Python    = "python"
	VMwareESX = "vmware-esx"
	Windows   = "windows"
	Custom    = "custom"
	Other     = "other"

	PrefixUbuntu  = "linux-ubuntu"
	PrefixRedHat  = "linux-redhat"
	PrefixCentOS  = "linux-centos"
	PrefixSUSE    = "linux-suse"
	PrefixOSX     = "osx"
	PrefixSolaris = "solaris"
	PrefixAIX     = "aix"
)

// Canonical architecture tokens.
const (
	ArchX86     = "x86"
	ArchX64     = "x64"
	ArchGeneric = "generic"
	ArchDocs    = "docs"
	ArchSdist   = "sdist"

	// UpdateZipSuffix marks the architecture variants of VM appliance update bundles.
	UpdateZipSuffix = "_UPDATE_ZIP"
)

// platformByExtension forces the platform for extensions that only ever carry
// one kind of payload, regardless of what the filename says.
var platformByExtension = map[string]string{
	"ova": VMwareESX,
	"img": Other,
	"zip": Other,
}

var architectureAliases = map[string]string{
	"x86_64": ArchX64,
	"i686":   ArchX86,
}

var platformAliases = map[string]string{
	"centos.el6": "linux-centos-6",
	"centos.el7": "linux-centos-7",
	"redhat.el6": "linux-redhat-6",
	"redhat.el7": "linux-redhat-7",
}
