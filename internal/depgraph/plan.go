package depgraph

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nesv/factorix/internal/ferr"
)

// Plan is the result of a planning operation: the set of identifiers to
// enable, disable, install (with the release chosen for each), or
// uninstall. Planning never mutates installed state; every plan is
// computed in full before any destructive operation runs.
type Plan struct {
	Enable    []string
	Disable   []string
	Install   []PlannedInstall
	Uninstall []string
}

// PlannedInstall pairs an identifier with the release selected for it.
type PlannedInstall struct {
	Identifier string
	Release    Release
}

// PlanEnable computes enable(M): the closure of M over required*
// restricted to installed mods. Fails if any required dependency in
// that closure is not installed.
func PlanEnable(g *Graph, target string) (Plan, error) {
	set := map[string]struct{}{target: {}}
	queue := []string{target}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, e := range g.EdgesFrom(id) {
			if e.Kind != KindRequired {
				continue
			}
			node, ok := g.Nodes[e.To]
			if !ok {
				return Plan{}, ferr.New(ferr.KindDependencyMissing, fmt.Sprintf("%s requires %s, which is not installed", id, e.To))
			}
			if !node.Installed {
				return Plan{}, ferr.New(ferr.KindDependencyMissing, fmt.Sprintf("%s requires %s, which is not installed", id, e.To))
			}
			if _, seen := set[e.To]; !seen {
				set[e.To] = struct{}{}
				queue = append(queue, e.To)
			}
		}
	}

	return Plan{Enable: sortedKeys(set)}, nil
}

// PlanDisable computes disable(M): M plus every enabled dependent
// that reaches M through required edges, transitively. base must
// never enter the set.
func PlanDisable(g *Graph, target string) (Plan, error) {
	if target == BaseModName {
		return Plan{}, ferr.New(ferr.KindInvalidArgument, "cannot disable base")
	}

	set := map[string]struct{}{target: {}}
	changed := true
	for changed {
		changed = false
		for from, edges := range g.Edges {
			if from == BaseModName {
				continue
			}
			if _, already := set[from]; already {
				continue
			}
			node := g.Nodes[from]
			if !node.Enabled {
				continue
			}
			for _, e := range edges {
				if e.Kind != KindRequired {
					continue
				}
				if _, inSet := set[e.To]; inSet {
					set[from] = struct{}{}
					changed = true
					break
				}
			}
		}
	}

	delete(set, BaseModName)
	return Plan{Disable: sortedKeys(set)}, nil
}

// InstallSpec is one requested install target: a name, optionally pinned
// to an exact version ("name@version"); Pinned == false means "name"
// or "name@latest" resolves to whatever release satisfies the graph's
// other constraints.
type InstallSpec struct {
	Name    string
	Version ModVersion
	Pinned  bool
}

// ReleaseSource resolves a mod's available portal releases. Implemented
// by internal/portal against the live Mod Portal; tests supply a fake.
type ReleaseSource interface {
	Releases(ctx context.Context, name string) ([]Release, error)
}

// PlanInstall resolves each of specs to a release and, when recursive
// is true, transitively pulls required
// dependencies not already satisfied by an installed active version,
// selecting releases compatible with every accumulated requirement on a
// given target and reporting a conflict if two requirements on the same
// target can't be satisfied by a single release. A requirement that
// reaches a target after its release has been chosen is not checked
// against that release.
func PlanInstall(ctx context.Context, g *Graph, src ReleaseSource, specs []InstallSpec, recursive bool) (Plan, error) {
	planned := make(map[string]PlannedInstall)
	requirements := make(map[string][]VersionRequirement)
	queue := make([]string, 0, len(specs))

	for _, spec := range specs {
		req := VersionRequirement{}
		if spec.Pinned {
			req = VersionRequirement{Present: true, Op: OpEQ, Version: spec.Version}
		}
		requirements[spec.Name] = append(requirements[spec.Name], req)
		queue = append(queue, spec.Name)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if _, already := planned[name]; already {
			continue
		}
		if node, ok := g.Nodes[name]; ok && node.Installed && satisfiesAll(node.Version, requirements[name]) {
			continue
		}

		releases, err := src.Releases(ctx, name)
		if err != nil {
			return Plan{}, err
		}

		candidates := make([]Release, 0, len(releases))
		for _, r := range releases {
			if satisfiesAll(r.Version, requirements[name]) {
				candidates = append(candidates, r)
			}
		}

		release, ok := SelectRelease(candidates, VersionRequirement{})
		if !ok {
			if _, single := mergeRequirements(requirements[name]); !single {
				return Plan{}, ferr.New(ferr.KindConflict, fmt.Sprintf("conflicting version requirements on %s", name))
			}
			return Plan{}, ferr.New(ferr.KindVersionMismatch, fmt.Sprintf("no release of %s satisfies requirements", name))
		}
		planned[name] = PlannedInstall{Identifier: name, Release: release}

		if !recursive {
			continue
		}

		deps, err := parseInfoJSONDependencies(release.InfoJSONBlob)
		if err != nil {
			return Plan{}, err
		}
		for _, dep := range deps {
			if !dep.NeedsInstall() || dep.TargetName == BaseModName {
				continue
			}
			requirements[dep.TargetName] = append(requirements[dep.TargetName], dep.Requirement)
			queue = append(queue, dep.TargetName)
		}
	}

	out := Plan{}
	for _, name := range sortedPlannedKeys(planned) {
		out.Install = append(out.Install, planned[name])
	}
	return out, nil
}

// satisfiesAll reports whether v satisfies every requirement in reqs.
func satisfiesAll(v ModVersion, reqs []VersionRequirement) bool {
	for _, r := range reqs {
		if !r.SatisfiedBy(v) {
			return false
		}
	}
	return true
}

// mergeRequirements collapses multiple accumulated requirements on one
// target into a single requirement. It reports false when reqs hold two
// different present requirements; PlanInstall uses that to report an
// unsatisfiable set as a conflict rather than a plain version mismatch.
func mergeRequirements(reqs []VersionRequirement) (VersionRequirement, bool) {
	var merged VersionRequirement
	for _, r := range reqs {
		if !r.Present {
			continue
		}
		if !merged.Present {
			merged = r
			continue
		}
		if merged.Op != r.Op || !merged.Version.Equal(r.Version) {
			return VersionRequirement{}, false
		}
	}
	return merged, true
}

// PlanUninstall computes uninstall(M): refuses if any other enabled
// installed mod has a required edge to M, unless all is true or the
// dependent is also in the uninstall set.
func PlanUninstall(g *Graph, targets []string, all bool) (Plan, error) {
	targetSet := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		targetSet[t] = struct{}{}
	}

	if !all {
		for from, edges := range g.Edges {
			if _, alsoLeaving := targetSet[from]; alsoLeaving {
				continue
			}
			node := g.Nodes[from]
			if !node.Enabled {
				continue
			}
			for _, e := range edges {
				if e.Kind != KindRequired {
					continue
				}
				if _, leaving := targetSet[e.To]; leaving {
					return Plan{}, ferr.New(ferr.KindConflict, fmt.Sprintf("%s depends on %s; refusing to uninstall", from, e.To))
				}
			}
		}
	}

	sorted := append([]string{}, targets...)
	sort.Strings(sorted)
	return Plan{Uninstall: sorted}, nil
}

// Downloader fetches one planned release's archive into the download
// cache, returning the download-cache key the zip was stored under.
type Downloader interface {
	Download(ctx context.Context, release Release) (key string, err error)
}

// ApplyInstalls downloads every PlannedInstall in plan with up to jobs
// concurrent downloads, bounded by golang.org/x/sync/semaphore and
// coordinated with errgroup. Install/update is best-effort
// transactional: on a failure the error returned names what could not
// be completed, but downloads that already succeeded are left in the
// download cache rather than rolled back.
func ApplyInstalls(ctx context.Context, dl Downloader, plan Plan, jobs int) error {
	if jobs <= 0 {
		jobs = 8
	}
	sem := semaphore.NewWeighted(int64(jobs))
	g, ctx := errgroup.WithContext(ctx)

	for _, pi := range plan.Install {
		pi := pi
		if err := sem.Acquire(ctx, 1); err != nil {
			return ferr.Wrap(ferr.KindCancelled, "acquire download slot", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			_, err := dl.Download(ctx, pi.Release)
			if err != nil {
				return fmt.Errorf("download %s %s: %w", pi.Identifier, pi.Release.Version, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedPlannedKeys(m map[string]PlannedInstall) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
