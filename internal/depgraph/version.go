// Package depgraph implements the dependency engine: the requirement
// parser, graph builder, release selector, validator, and planner that
// together decide what enabling, disabling, installing, uninstalling,
// or updating a mod actually entails.
//
// ModVersion deliberately does not build on github.com/Masterminds/semver
// (reserved elsewhere in factorix for Factorio *game* versions, which are
// genuine two-part semver-ish strings): a four-component,
// hyphen-separated build field isn't valid semver syntax, and
// round-tripping it through semver's string parser on every comparison
// would be both lossy and wasteful.
package depgraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nesv/factorix/internal/ferr"
)

// ModVersion is Factorio's mod version tuple: major.minor.patch, with an
// optional hyphenated build component. Comparison is lexicographic over
// the four fields.
type ModVersion struct {
	Major, Minor, Patch, Build uint16
}

// ParseModVersion parses "X.Y.Z" (build=0) or "X.Y.Z-B".
func ParseModVersion(s string) (ModVersion, error) {
	body, buildStr, hasBuild := strings.Cut(s, "-")
	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return ModVersion{}, ferr.New(ferr.KindVersionParse, fmt.Sprintf("malformed version %q", s))
	}

	nums := make([]uint16, 3)
	for i, p := range parts {
		n, err := parseUint16(p)
		if err != nil {
			return ModVersion{}, ferr.Wrap(ferr.KindVersionParse, fmt.Sprintf("malformed version %q", s), err)
		}
		nums[i] = n
	}

	var build uint16
	if hasBuild {
		b, err := parseUint16(buildStr)
		if err != nil {
			return ModVersion{}, ferr.Wrap(ferr.KindVersionParse, fmt.Sprintf("malformed build component in %q", s), err)
		}
		build = b
	}

	return ModVersion{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: build}, nil
}

func parseUint16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// String renders the canonical form: "X.Y.Z" when Build is 0, else
// "X.Y.Z-B".
func (v ModVersion) String() string {
	if v.Build == 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d.%d-%d", v.Major, v.Minor, v.Patch, v.Build)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, lexicographically over (Major, Minor, Patch, Build).
func (v ModVersion) Compare(other ModVersion) int {
	switch {
	case v.Major != other.Major:
		return cmpUint16(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpUint16(v.Minor, other.Minor)
	case v.Patch != other.Patch:
		return cmpUint16(v.Patch, other.Patch)
	default:
		return cmpUint16(v.Build, other.Build)
	}
}

func cmpUint16(a, b uint16) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v ModVersion) Less(other ModVersion) bool    { return v.Compare(other) < 0 }
func (v ModVersion) Equal(other ModVersion) bool    { return v.Compare(other) == 0 }
func (v ModVersion) Greater(other ModVersion) bool  { return v.Compare(other) > 0 }
