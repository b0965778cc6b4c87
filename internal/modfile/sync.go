// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package modfile

import "github.com/nesv/factorix/internal/depgraph"

// SyncPlan is the result of diffing a target mod list against what is
// currently installed/enabled. NeedsInstall holds specs for identifiers
// target wants enabled but that aren't installed at all; resolving those
// to actual releases is depgraph.PlanInstall's job, not this package's.
type SyncPlan struct {
	Enable       []string
	Disable      []string
	NeedsInstall []depgraph.InstallSpec
}

// SyncFrom implements the sync command: given a target mod list
// (normally exported by a save-management tool from a
// save's embedded mod list, since factorix treats the save's own binary
// format as out of scope), diff it against the currently installed graph
// and return what would need to change to match. SyncFrom never mutates
// anything itself; the caller resolves NeedsInstall through
// depgraph.PlanInstall and runs the rest through enable/disable.
func SyncFrom(g *depgraph.Graph, current *depgraph.ModList, target *depgraph.ModList) SyncPlan {
	var plan SyncPlan

	for _, want := range target.Entries() {
		node, installed := g.Nodes[want.Name]

		if !installed {
			if want.Enabled {
				spec := depgraph.InstallSpec{Name: want.Name}
				if want.HasVersion {
					spec.Version, spec.Pinned = want.Version, true
				}
				plan.NeedsInstall = append(plan.NeedsInstall, spec)
			}
			continue
		}

		switch {
		case want.Enabled && !node.Enabled:
			plan.Enable = append(plan.Enable, want.Name)
		case !want.Enabled && node.Enabled:
			plan.Disable = append(plan.Disable, want.Name)
		}
	}

	for _, have := range current.Entries() {
		if have.Name == depgraph.BaseModName {
			continue
		}
		if _, stillWanted := target.Get(have.Name); !stillWanted && have.Enabled {
			plan.Disable = append(plan.Disable, have.Name)
		}
	}

	return plan
}
