// Package version orders artifact version strings.
//
// A version is split into a numeric core (digits and dots) and an optional
// suffix. Cores are compared with hashicorp/go-version. Equal cores fall back
// to the suffix: pre-release markers sort before the bare core, everything
// else (post releases, VCS describe suffixes, revisions) sorts after it.
package version

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

var (
	coreRegexp            = regexp.MustCompile(`^v?([0-9][0-9.+]*)(.*)$`)
	debianRevisionRegexp  = regexp.MustCompile(`-\d+$`)
	tokenRegexp           = regexp.MustCompile(`\d+|[a-zA-Z]+`)
	preReleaseSuffixRegex = regexp.MustCompile(`^[-.]?(develop|dev|a|alpha|b|beta|rc|c|pre)(\d|[-.]|$)`)
)

// StripDebianRevision removes a trailing Debian-style "-N" revision.
func StripDebianRevision(v string) string {
	return debianRevisionRegexp.ReplaceAllString(v, "")
}

func split(v string) (core, suffix string) {
	m := coreRegexp.FindStringSubmatch(v)
	if m == nil {
		return "", v
	}
	core = strings.Trim(strings.ReplaceAll(m[1], "+", "."), ".")
	for strings.Contains(core, "..") {
		core = strings.ReplaceAll(core, "..", ".")
	}
	return core, m[2]
}

func compareCores(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" || b == "" {
		return compareStrings(a, b)
	}
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA != nil || errB != nil {
		return compareTokens(a, b)
	}
	return va.Compare(vb)
}

func isPreRelease(suffix string) bool {
	return preReleaseSuffixRegex.MatchString(strings.ToLower(suffix))
}

func compareSuffixes(a, b string) int {
	if a == b {
		return 0
	}
	rank := func(s string) int {
		switch {
		case s == "":
			return 1
		case isPreRelease(s):
			return 0
		default:
			return 2
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return compareInts(ra, rb)
	}
	return compareTokens(a, b)
}

// compareTokens compares runs of digits numerically and runs of letters
// lexically; a number sorts after a word, a longer token list after its prefix.
func compareTokens(a, b string) int {
	ta := tokenRegexp.FindAllString(a, -1)
	tb := tokenRegexp.FindAllString(b, -1)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		na, errA := strconv.ParseUint(ta[i], 10, 64)
		nb, errB := strconv.ParseUint(tb[i], 10, 64)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		case errA == nil:
			return 1
		case errB == nil:
			return -1
		default:
			if c := strings.Compare(ta[i], tb[i]); c != 0 {
				return c
			}
		}
	}
	return compareInts(len(ta), len(tb))
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	return strings.Compare(a, b)
}

// Compare returns -1, 0 or 1. Versions that compare equal by value but differ
// textually are ordered by their text, so Compare is a total order.
func Compare(a, b string) int {
	coreA, suffixA := split(a)
	coreB, suffixB := split(b)
	if c := compareCores(coreA, coreB); c != 0 {
		return c
	}
	if c := compareSuffixes(suffixA, suffixB); c != 0 {
		return c
	}
	return compareStrings(a, b)
}

// CompareIgnoringRevision compares a and b after removing Debian revisions.
// Versions equal after stripping are ordered by Compare on the full strings.
func CompareIgnoringRevision(a, b string) int {
	coreA, suffixA := split(StripDebianRevision(a))
	coreB, suffixB := split(StripDebianRevision(b))
	if c := compareCores(coreA, coreB); c != 0 {
		return c
	}
	if c := compareSuffixes(suffixA, suffixB); c != 0 {
		return c
	}
	return Compare(a, b)
}

// SortDescending sorts items newest first according to cmp applied to key(item).
func SortDescending[T any](items []T, key func(T) string, cmp func(a, b string) int) {
	sort.SliceStable(items, func(i, j int) bool {
		return cmp(key(items[i]), key(items[j])) > 0
	})
}

// Latest returns the newest version of vs using Compare, or "" for an empty list.
func Latest(vs []string) string {
	latest := ""
	for i, v := range vs {
		if i == 0 || Compare(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}
