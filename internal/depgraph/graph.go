package depgraph

// NodeKey identifies a graph node by mod identifier; a graph has at most
// one node per identifier (its active version).
type NodeKey = string

// Node is one mod's active state in the graph.
type Node struct {
	Identifier string
	Version    ModVersion
	Installed  bool
	Enabled    bool
}

// Edge is one dependency relationship between two active nodes.
type Edge struct {
	From        string
	To          string
	Kind        DependencyKind
	Requirement VersionRequirement
}

// Graph is the dependency graph: one node per mod identifier (its
// active version) plus directed edges for each active mod's declared
// dependencies.
type Graph struct {
	Nodes map[string]Node
	// Edges maps a source identifier to its outbound edges.
	Edges map[string][]Edge
}

// newGraph returns an empty graph.
func newGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]Node),
		Edges: make(map[string][]Edge),
	}
}

// EdgesFrom returns from's outbound edges, or nil if it has none.
func (g *Graph) EdgesFrom(from string) []Edge {
	return g.Edges[from]
}

// EdgesTo returns every edge whose To is to.
func (g *Graph) EdgesTo(to string) []Edge {
	var out []Edge
	for _, edges := range g.Edges {
		for _, e := range edges {
			if e.To == to {
				out = append(out, e)
			}
		}
	}
	return out
}

// BuildGraph builds a Graph: for each installed identifier (plus the
// always-present base), it picks the active version, records its
// enabled state from ml, and adds edges for its non-base dependencies.
func BuildGraph(installed []InstalledMod, ml *ModList) *Graph {
	g := newGraph()

	byIdentifier := make(map[string][]InstalledMod)
	for _, m := range installed {
		byIdentifier[m.Identifier] = append(byIdentifier[m.Identifier], m)
	}

	identifiers := make(map[string]struct{}, len(byIdentifier)+1)
	identifiers[BaseModName] = struct{}{}
	for id := range byIdentifier {
		identifiers[id] = struct{}{}
	}

	for id := range identifiers {
		enabled := ml.IsEnabled(id) || id == BaseModName

		if id == BaseModName {
			g.Nodes[id] = Node{Identifier: id, Installed: true, Enabled: true}
			continue
		}

		active, ok := ActiveVersion(id, byIdentifier[id], ml)
		if !ok {
			continue
		}
		g.Nodes[id] = Node{Identifier: id, Version: active.Version, Installed: true, Enabled: enabled}

		for _, dep := range active.Info.Dependencies {
			if dep.TargetName == BaseModName {
				continue
			}
			g.Edges[id] = append(g.Edges[id], Edge{
				From:        id,
				To:          dep.TargetName,
				Kind:        dep.Kind,
				Requirement: dep.Requirement,
			})
		}
	}

	return g
}
