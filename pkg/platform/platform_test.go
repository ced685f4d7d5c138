package platform

import (
	"crypto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		platform  string
		extension string
		want      string
	}{
		{"centos.el6", "rpm", "linux-centos-6"},
		{"centos.el7", "rpm", "linux-centos-7"},
		{"redhat.el6", "rpm", "linux-redhat-6"},
		{"redhat.el7", "rpm", "linux-redhat-7"},
		{"linux-centos-7", "rpm", "linux-centos-7"},
		{"linux-ubuntu-lucid", "ova", VMwareESX},
		{"linux-centos-6", "img", Other},
		{"vmware-esx", "zip", Other},
		{"windows", "msi", "windows"},
	}
	for _, tt := range tests {
		t.Run(tt.platform+"."+tt.extension, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlatform(tt.platform, tt.extension))
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	assert.Equal(t, ArchX64, NormalizeArch("x86_64"))
	assert.Equal(t, ArchX86, NormalizeArch("i686"))
	assert.Equal(t, "x64_dd", NormalizeArch("x64_dd"))
}

func TestSplitDistribution(t *testing.T) {
	d, ok := SplitDistribution("linux-ubuntu-trusty")
	assert.True(t, ok)
	assert.Equal(t, Distribution{Name: "linux-ubuntu", Release: "trusty"}, d)
	assert.Equal(t, "linux-ubuntu-trusty", d.String())

	_, ok = SplitDistribution("windows")
	assert.False(t, ok)
	_, ok = SplitDistribution("linux-")
	assert.False(t, ok)
}

func TestFamilyOf(t *testing.T) {
	tests := map[string]Family{
		"linux-centos-7":      FamilyRedHat,
		"linux-redhat-6":      FamilyRedHat,
		"linux-ubuntu-xenial": FamilyUbuntu,
		"linux-suse-11":       FamilySUSE,
		"windows":             FamilyWindows,
		"vmware-esx":          FamilyVMware,
		"solaris-10":          FamilySolaris,
		"aix-7.1":             FamilyAIX,
		"osx-10.9":            FamilyOSX,
		"python":              FamilyPython,
		"custom":              FamilyUnknown,
	}
	for p, want := range tests {
		assert.Equal(t, want, FamilyOf(p), p)
	}
}

func TestAPTMatrix(t *testing.T) {
	arch, ok := APTSupports(Distribution{Name: "linux-ubuntu", Release: "trusty"}, ArchX64)
	assert.True(t, ok)
	assert.Equal(t, "amd64", arch)

	arch, ok = APTSupports(Distribution{Name: "linux-ubuntu", Release: "precise"}, ArchX86)
	assert.True(t, ok)
	assert.Equal(t, "i386", arch)

	_, ok = APTSupports(Distribution{Name: "linux-ubuntu", Release: "warty"}, ArchX64)
	assert.False(t, ok)
	_, ok = APTSupports(Distribution{Name: "linux-debian", Release: "trusty"}, ArchX64)
	assert.False(t, ok)
	_, ok = APTSupports(Distribution{Name: "linux-ubuntu", Release: "trusty"}, "sparc")
	assert.False(t, ok)

	assert.Equal(t, []string{"amd64", "i386"}, APTArchitectures())
	assert.Contains(t, APTCodenames(), "xenial")
}

func TestReleaseDigest(t *testing.T) {
	assert.Equal(t, crypto.SHA1, ReleaseDigest("precise"))
	assert.Equal(t, crypto.SHA256, ReleaseDigest("trusty"))
	assert.Equal(t, crypto.SHA256, ReleaseDigest("unknown"))
}

func TestYUMMatrix(t *testing.T) {
	arch, ok := YUMSupports("linux-centos-6", ArchX86)
	assert.True(t, ok)
	assert.Equal(t, "i686", arch)

	_, ok = YUMSupports("linux-centos-7", ArchX86)
	assert.False(t, ok, "el7 is 64-bit only")

	arch, ok = YUMSupports("linux-redhat-7", ArchX64)
	assert.True(t, ok)
	assert.Equal(t, "x86_64", arch)

	_, ok = YUMSupports("linux-ubuntu-trusty", ArchX64)
	assert.False(t, ok)

	assert.Equal(t, []string{"i686", "x86_64"}, YUMArchitectures("linux-suse-11"))
	assert.Contains(t, YUMPlatforms(), "linux-centos-5")
}

func TestIsUpdateBundle(t *testing.T) {
	assert.True(t, IsUpdateBundle("x86_OVF10_UPDATE_ZIP"))
	assert.True(t, IsUpdateBundle("x64_OVF_10_UPDATE_ZIP"))
	assert.False(t, IsUpdateBundle("x86_OVF10_UPDATE_ISO"))
}
