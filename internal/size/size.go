// Package size implements the total order on version-increment sizes and the
// arithmetic that applies a size to a dotted-triple version.
package size

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/versio-mono/versio/internal/verrors"
)

// Size is a semantic-version increment level, totally ordered
// Fail > Major > Minor > Patch > None.
type Size int

const (
	None Size = iota
	Patch
	Minor
	Major
	Fail
)

func (s Size) String() string {
	switch s {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	case None:
		return "none"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Parse converts a lowercase size token into a Size.
func Parse(v string) (Size, error) {
	switch v {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	case "none":
		return None, nil
	case "fail":
		return Fail, nil
	default:
		return None, fmt.Errorf("unknown size %q: %w", v, verrors.ErrManifestInvalid)
	}
}

// Max returns the greater of two sizes under the total order.
func Max(a, b Size) Size {
	if a > b {
		return a
	}
	return b
}

// Version is a parsed dotted-triple semantic version: major.minor.patch.
type Version struct {
	Major, Minor, Patch uint64
}

// ParseVersion parses a strict "M.m.p" unsigned-decimal triple.
func ParseVersion(v string) (Version, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("not a 3-part version %q: %w", v, verrors.ErrVersionParse)
	}
	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("not a 3-part version %q: %w", v, verrors.ErrVersionParse)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// LessThan is the lexicographic order on (Major, Minor, Patch).
func (v Version) LessThan(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

func (v Version) GreaterThan(o Version) bool { return o.LessThan(v) }
func (v Version) Equal(o Version) bool       { return v == o }

// Apply increments v at the position named by s, zeroing lower components.
// None is identity; Fail always errors.
func (s Size) Apply(v Version) (Version, error) {
	switch s {
	case Major:
		return Version{Major: v.Major + 1, Minor: 0, Patch: 0}, nil
	case Minor:
		return Version{Major: v.Major, Minor: v.Minor + 1, Patch: 0}, nil
	case Patch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	case None:
		return v, nil
	default:
		return Version{}, fmt.Errorf("'fail' size encountered: %w", verrors.ErrSizeFail)
	}
}

// LessThan reports whether v1 < v2 as dotted-triple strings, per the §8
// testable property; it parses both strings into Versions and compares them.
func LessThan(v1, v2 string) (bool, error) {
	p1, err := ParseVersion(v1)
	if err != nil {
		return false, err
	}
	p2, err := ParseVersion(v2)
	if err != nil {
		return false, err
	}
	return p1.LessThan(p2), nil
}

// ApplyString applies s to the dotted-triple string v and returns the result
// as a string, mirroring the original's string-oriented `apply`.
func ApplyString(s Size, v string) (string, error) {
	parsed, err := ParseVersion(v)
	if err != nil {
		return "", err
	}
	applied, err := s.Apply(parsed)
	if err != nil {
		return "", err
	}
	return applied.String(), nil
}
