package depgraph

import (
	"fmt"

	"github.com/nesv/factorix/internal/ferr"
)

// Operator is one of the five comparison operators a VersionRequirement
// may carry.
type Operator string

const (
	OpGT Operator = ">"
	OpGE Operator = ">="
	OpEQ Operator = "="
	OpLE Operator = "<="
	OpLT Operator = "<"
)

var operatorsByLength = []Operator{OpGE, OpLE, OpGT, OpEQ, OpLT}

// VersionRequirement is an optional operator+version pair. The zero value
// (Present == false) means "no requirement", trivially satisfied by
// every version.
type VersionRequirement struct {
	Present bool
	Op      Operator
	Version ModVersion
}

// SatisfiedBy reports whether v meets the requirement.
func (r VersionRequirement) SatisfiedBy(v ModVersion) bool {
	if !r.Present {
		return true
	}
	c := v.Compare(r.Version)
	switch r.Op {
	case OpGT:
		return c > 0
	case OpGE:
		return c >= 0
	case OpEQ:
		return c == 0
	case OpLE:
		return c <= 0
	case OpLT:
		return c < 0
	default:
		return false
	}
}

// String renders "op version", or "" when Present is false.
func (r VersionRequirement) String() string {
	if !r.Present {
		return ""
	}
	return fmt.Sprintf("%s %s", r.Op, r.Version.String())
}

// parseRequirement parses the "op ws version" tail of a dependency
// string, returning a present VersionRequirement. The caller has already
// split the tail into opToken and versionToken.
func parseRequirement(opToken, versionToken string) (VersionRequirement, error) {
	op := Operator(opToken)
	switch op {
	case OpGT, OpGE, OpEQ, OpLE, OpLT:
	default:
		return VersionRequirement{}, ferr.New(ferr.KindInvalidArgument, fmt.Sprintf("unknown operator %q", opToken))
	}

	v, err := ParseModVersion(versionToken)
	if err != nil {
		return VersionRequirement{}, err
	}

	return VersionRequirement{Present: true, Op: op, Version: v}, nil
}
