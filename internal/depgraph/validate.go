package depgraph

import "fmt"

// IssueKind is a machine-readable validation error/warning classification.
type IssueKind string

const (
	IssueMissingDependency  IssueKind = "missing_dependency"
	IssueDisabledDependency IssueKind = "disabled_dependency"
	IssueVersionMismatch    IssueKind = "version_mismatch"
	IssueConflict           IssueKind = "conflict"
	IssueCircularDependency IssueKind = "circular_dependency"
	IssueModNotInstalled    IssueKind = "mod_in_list_not_installed"
	IssueModNotInList       IssueKind = "mod_installed_not_in_list"
)

// Issue is one validation error or warning.
type Issue struct {
	Kind    IssueKind
	Message string
}

// ValidationResult is the validator's output: every problem found, not
// just the first. Validation is data, not an exception.
type ValidationResult struct {
	Errors   []Issue
	Warnings []Issue
}

// OK reports whether the graph has no errors (warnings are informational
// only).
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs every consistency check against g, cross-referenced
// with ml for the mod-list-vs-installed warnings.
func Validate(g *Graph, ml *ModList) ValidationResult {
	var result ValidationResult

	for from, edges := range g.Edges {
		for _, e := range edges {
			target, present := g.Nodes[e.To]

			switch e.Kind {
			case KindRequired:
				if !present {
					result.Errors = append(result.Errors, Issue{
						Kind:    IssueMissingDependency,
						Message: fmt.Sprintf("%s requires %s, which is not installed", from, e.To),
					})
					continue
				}
				if !target.Enabled {
					result.Errors = append(result.Errors, Issue{
						Kind:    IssueDisabledDependency,
						Message: fmt.Sprintf("%s requires %s, which is disabled", from, e.To),
					})
				}
				if present && !e.Requirement.SatisfiedBy(target.Version) {
					result.Errors = append(result.Errors, Issue{
						Kind:    IssueVersionMismatch,
						Message: fmt.Sprintf("%s requires %s %s, but %s is installed", from, e.To, e.Requirement.String(), target.Version.String()),
					})
				}

			case KindIncompatible:
				fromNode := g.Nodes[from]
				if present && fromNode.Enabled && target.Enabled {
					result.Errors = append(result.Errors, Issue{
						Kind:    IssueConflict,
						Message: fmt.Sprintf("%s is incompatible with %s, but both are enabled", from, e.To),
					})
				}
			}
		}
	}

	for _, cycle := range findRequiredCycles(g) {
		result.Errors = append(result.Errors, Issue{
			Kind:    IssueCircularDependency,
			Message: fmt.Sprintf("circular required dependency: %s", cycleString(cycle)),
		})
	}

	for _, e := range ml.Entries() {
		if _, ok := g.Nodes[e.Name]; !ok {
			result.Warnings = append(result.Warnings, Issue{
				Kind:    IssueModNotInstalled,
				Message: fmt.Sprintf("%s is listed in mod-list.json but not installed", e.Name),
			})
		}
	}
	for id := range g.Nodes {
		if id == BaseModName {
			continue
		}
		if _, ok := ml.Get(id); !ok {
			result.Warnings = append(result.Warnings, Issue{
				Kind:    IssueModNotInList,
				Message: fmt.Sprintf("%s is installed but not listed in mod-list.json", id),
			})
		}
	}

	return result
}

func cycleString(cycle []string) string {
	s := ""
	for i, id := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += id
	}
	return s
}

// findRequiredCycles runs a recursive DFS restricted to required
// edges, reporting each distinct cycle once.
func findRequiredCycles(g *Graph) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		color[id] = white
	}

	var cycles [][]string
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		for _, e := range g.Edges[id] {
			if e.Kind != KindRequired {
				continue
			}
			switch color[e.To] {
			case white:
				if _, ok := g.Nodes[e.To]; ok {
					visit(e.To)
				}
			case gray:
				cycles = append(cycles, extractCycle(stack, e.To))
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for id := range g.Nodes {
		if color[id] == white {
			visit(id)
		}
	}

	return cycles
}

// extractCycle returns the suffix of stack starting at target, closing
// the loop back to target.
func extractCycle(stack []string, target string) []string {
	for i, id := range stack {
		if id == target {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, target)
		}
	}
	return []string{target}
}
