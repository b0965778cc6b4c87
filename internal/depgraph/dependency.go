package depgraph

import (
	"fmt"
	"strings"

	"github.com/nesv/factorix/internal/ferr"
)

// DependencyKind classifies a ModDependency's prefix.
type DependencyKind int

const (
	KindRequired DependencyKind = iota
	KindOptional
	KindHiddenOptional
	KindIncompatible
	KindLoadNeutral
)

func (k DependencyKind) prefix() string {
	switch k {
	case KindIncompatible:
		return "!"
	case KindOptional:
		return "?"
	case KindHiddenOptional:
		return "(?)"
	case KindLoadNeutral:
		return "~"
	default:
		return ""
	}
}

func (k DependencyKind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindOptional:
		return "optional"
	case KindHiddenOptional:
		return "hidden_optional"
	case KindIncompatible:
		return "incompatible"
	case KindLoadNeutral:
		return "load_neutral"
	default:
		return "unknown"
	}
}

// ModDependency is one parsed entry out of a mod's info.json
// "dependencies" array: a target identifier, its kind, and an optional
// version requirement. Immutable once constructed.
type ModDependency struct {
	TargetName  string
	Kind        DependencyKind
	Requirement VersionRequirement
}

// NeedsInstall reports whether this dependency kind implies the target
// must be present and enabled for the owning mod to load. Incompatible
// and load-neutral dependencies never participate in "needs to be
// installed" logic.
func (d ModDependency) NeedsInstall() bool {
	return d.Kind == KindRequired
}

// knownPrefixes is ordered longest-first so "(?)" is recognized before a
// bare "?" could mis-match its first character.
var knownPrefixes = []struct {
	text string
	kind DependencyKind
}{
	{"(?)", KindHiddenOptional},
	{"!", KindIncompatible},
	{"?", KindOptional},
	{"~", KindLoadNeutral},
}

// ParseDependency parses one dependency-string entry per the grammar:
//
//	dep      := prefix? ws? name (ws op ws version)?
//	prefix   := "!" | "?" | "(?)" | "~"
//	op       := ">" | ">=" | "=" | "<=" | "<"
//
// A prefix may be followed directly by name, or (as real info.json data
// and the canonical String() form both do) by a single ASCII space
// first; either way any leading whitespace after the prefix is
// discarded. A single ASCII space separates name/op/version. The name
// must be non-empty; if a requirement is present its version must
// parse.
func ParseDependency(s string) (ModDependency, error) {
	rest := s
	kind := KindRequired
	for _, kp := range knownPrefixes {
		if strings.HasPrefix(rest, kp.text) {
			kind = kp.kind
			rest = strings.TrimSpace(rest[len(kp.text):])
			break
		}
	}

	name, reqStr, hasReq := strings.Cut(rest, " ")
	if name == "" {
		return ModDependency{}, ferr.New(ferr.KindInvalidArgument, fmt.Sprintf("empty dependency name in %q", s))
	}

	dep := ModDependency{TargetName: name, Kind: kind}
	if !hasReq {
		return dep, nil
	}

	opToken, versionToken, ok := strings.Cut(reqStr, " ")
	if !ok {
		return ModDependency{}, ferr.New(ferr.KindInvalidArgument, fmt.Sprintf("malformed requirement in %q", s))
	}
	req, err := parseRequirement(opToken, versionToken)
	if err != nil {
		return ModDependency{}, err
	}
	dep.Requirement = req
	return dep, nil
}

// String reproduces the canonical form: a prefix (if any) followed by a
// space, then the name, then " op version" if a requirement is present.
// ParseDependency(d.String()) round-trips to d for every ModDependency.
func (d ModDependency) String() string {
	var b strings.Builder
	if prefix := d.Kind.prefix(); prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(d.TargetName)
	if d.Requirement.Present {
		b.WriteByte(' ')
		b.WriteString(d.Requirement.String())
	}
	return b.String()
}
