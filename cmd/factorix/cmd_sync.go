// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"

	"github.com/nesv/factorix/internal/modfile"
)

// runSync is the "sync" subcommand's Exec: diffs the installation's
// current mod-list.json against a target mod-list.json-shaped file (a
// save's sidecar mod list, for instance) and prints the resulting plan.
// Sync only plans; apply the printed enable/disable names with
// "factorix enable"/"factorix disable", and installs with "factorix
// install" — planning and destructive operations stay separate
// throughout this CLI.
func runSync(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("sync requires exactly one path to a mod-list.json-shaped file")
	}
	targetPath := args[0]

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	g, current, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	target, err := modfile.LoadModList(targetPath)
	if err != nil {
		return err
	}

	plan := modfile.SyncFrom(g, current, target)

	if len(plan.Enable) == 0 && len(plan.Disable) == 0 && len(plan.NeedsInstall) == 0 {
		fmt.Println("already in sync")
		return nil
	}

	for _, name := range plan.Enable {
		fmt.Printf("enable  %s\n", name)
	}
	for _, name := range plan.Disable {
		fmt.Printf("disable %s\n", name)
	}
	for _, spec := range plan.NeedsInstall {
		if spec.Pinned {
			fmt.Printf("install %s@%s\n", spec.Name, spec.Version)
		} else {
			fmt.Printf("install %s\n", spec.Name)
		}
	}
	return nil
}
