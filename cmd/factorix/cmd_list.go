// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"

	"github.com/nesv/factorix/internal/catalog"
	"github.com/nesv/factorix/internal/depgraph"
)

// Set by the "list" subcommand's flags.
var (
	listInstalledOnly bool
	listSearch        string
	listCategory      string
)

// runList is the "list" subcommand's Exec: either the installation's
// installed mods (default) or, with --search, the local portal catalog.
func runList(ctx context.Context, args []string) error {
	if listCategory != "" && !catalog.ValidCategory(listCategory) {
		return fmt.Errorf("unknown category %q (want one of %v)", listCategory, catalog.Categories())
	}

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	if listSearch != "" || listCategory != "" {
		return a.listCatalog(ctx, listSearch)
	}
	return a.listInstalled(ctx)
}

func (a *app) listCatalog(ctx context.Context, term string) error {
	opts := catalog.SearchOptions{Limit: 50}
	if listCategory != "" {
		opts.Categories = []string{listCategory}
	}
	entries, err := a.catalogIdx.Search(ctx, term, opts)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()
	if !a.noHead {
		fmt.Fprintln(tw, "NAME\tOWNER\tCATEGORY\tVERSION\tRELEASED\tSUMMARY")
	}
	for _, e := range entries {
		summary := e.Summary
		if len(summary) > 40 {
			summary = summary[:40] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Name, e.Owner, e.Category, e.Version, humanize.Time(e.ReleasedAt), summary)
	}
	return nil
}

func (a *app) listInstalled(ctx context.Context) error {
	g, _, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()
	if !a.noHead {
		fmt.Fprintln(tw, "NAME\tVERSION\tENABLED\tINSTALLED")
	}

	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := g.Nodes[name]
		if listInstalledOnly && !node.Installed {
			continue
		}
		version := node.Version.String()
		if name == depgraph.BaseModName {
			version = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", name, version, node.Enabled, node.Installed)
	}

	return nil
}

// runCheck is the "check" subcommand's Exec: runs the validator and
// prints every error/warning. Exits with a validation
// error (exit code 1) if any errors were found.
func runCheck(ctx context.Context, args []string) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ml, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	result := depgraph.Validate(g, ml)
	for _, issue := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", issue.Kind, issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", issue.Kind, issue.Message)
	}
	if !result.OK() {
		return fmt.Errorf("%d validation error(s) found", len(result.Errors))
	}
	fmt.Println("ok")
	return nil
}

// runShow is the "show" subcommand's Exec: prints one mod's graph node
// plus its dependency edges.
func runShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("show requires exactly one mod name")
	}
	name := args[0]

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	g, _, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	node, ok := g.Nodes[name]
	if !ok {
		return fmt.Errorf("%s is not installed", name)
	}

	fmt.Printf("name:      %s\n", node.Identifier)
	fmt.Printf("version:   %s\n", node.Version)
	fmt.Printf("enabled:   %t\n", node.Enabled)

	edges := g.EdgesFrom(name)
	if len(edges) > 0 {
		fmt.Println("dependencies:")
		for _, e := range edges {
			req := ""
			if e.Requirement.Present {
				req = " " + e.Requirement.String()
			}
			fmt.Printf("  %s %s%s\n", e.Kind, e.To, req)
		}
	}

	dependents := g.EdgesTo(name)
	if len(dependents) > 0 {
		fmt.Println("dependents:")
		for _, e := range dependents {
			fmt.Printf("  %s depends on this (%s)\n", e.From, e.Kind)
		}
	}

	return nil
}
