package revision

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/damoang/angple-cms/internal/domain"
)

// InitialVersion is assigned to the first revision of a subject and to every create
const InitialVersion = "1.0.0"

// SemVer is a major.minor.patch revision version
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// ParseSemVer parses a strict "x.y.z": three dot separated runs of ASCII
// digits. Whitespace, signs, pre-release and build suffixes are rejected so
// a stored "1.0.0-beta" falls back to the initial version like any other
// malformed value.
func ParseSemVer(s string) (SemVer, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("invalid semver: %q (expected x.y.z)", s)
	}

	var nums [3]int
	for i, p := range parts {
		if !isDigits(p) {
			return SemVer{}, fmt.Errorf("invalid semver component %q in %q", p, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemVer{}, fmt.Errorf("invalid semver component %q in %q: %w", p, s, err)
		}
		nums[i] = n
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1
func (v SemVer) Compare(other SemVer) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// bumpMajor and bumpPatch carry into the next component instead of
// overflowing. A version already at the ceiling is returned unchanged.
func (v SemVer) bumpMajor() SemVer {
	if v.Major == math.MaxInt {
		return v
	}
	return SemVer{Major: v.Major + 1}
}

func (v SemVer) bumpPatch() SemVer {
	switch {
	case v.Patch < math.MaxInt:
		return SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	case v.Minor < math.MaxInt:
		return SemVer{Major: v.Major, Minor: v.Minor + 1}
	default:
		return v.bumpMajor()
	}
}

// NextVersion computes the version of a new revision from the latest stored
// version of the subject.
//
//   - no previous revision, or an unparsable one: 1.0.0
//   - create: 1.0.0 (re-baseline)
//   - publish: (major+1).0.0
//   - update, revert and any other action (delete included): patch+1
//
// A component at math.MaxInt carries into the next one.
func NextVersion(previous *string, action domain.Action) string {
	if previous == nil {
		return InitialVersion
	}
	v, err := ParseSemVer(*previous)
	if err != nil {
		return InitialVersion
	}

	switch action {
	case domain.ActionCreate:
		return InitialVersion
	case domain.ActionPublish:
		return v.bumpMajor().String()
	default:
		return v.bumpPatch().String()
	}
}
