// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/ferr"
	"github.com/nesv/factorix/internal/modfile"
)

// runEnable is the "enable" subcommand's Exec: enables M and every
// mod it requires.
func runEnable(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("enable requires exactly one mod name")
	}
	return enableOrDisable(ctx, func(g *depgraph.Graph) (depgraph.Plan, error) {
		return depgraph.PlanEnable(g, args[0])
	})
}

// runDisable is the "disable" subcommand's Exec: disables M and every
// mod depending on it.
func runDisable(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("disable requires exactly one mod name")
	}
	return enableOrDisable(ctx, func(g *depgraph.Graph) (depgraph.Plan, error) {
		return depgraph.PlanDisable(g, args[0])
	})
}

// enableOrDisable bootstraps the app, requires the installation to be
// idle (destructive commands refuse to run against a live game), computes a
// plan via planFn, flips the affected mod-list.json entries, and
// persists the result.
func enableOrDisable(ctx context.Context, planFn func(g *depgraph.Graph) (depgraph.Plan, error)) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	installation, err := a.requireInstallation()
	if err != nil {
		return err
	}
	if err := installation.RequireNotRunning(); err != nil {
		return err
	}

	g, ml, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	plan, err := planFn(g)
	if err != nil {
		return err
	}

	for _, name := range plan.Enable {
		e, _ := ml.Get(name)
		e.Name, e.Enabled = name, true
		ml.Set(e)
		fmt.Printf("enabled %s\n", name)
	}
	for _, name := range plan.Disable {
		e, _ := ml.Get(name)
		e.Name, e.Enabled = name, false
		ml.Set(e)
		fmt.Printf("disabled %s\n", name)
	}

	return modfile.SaveModList(installation.ModListPath(), ml)
}

// Set by the "install" subcommand's flags.
var (
	installRecursive bool
	installEnable    bool
)

// runInstall is the "install" subcommand's Exec: resolves and installs
// one or more mod specs.
func runInstall(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("install requires at least one mod name")
	}

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	installation, err := a.requireInstallation()
	if err != nil {
		return err
	}
	if err := installation.RequireNotRunning(); err != nil {
		return err
	}
	if !a.creds.HasDownloadCreds() {
		return ferr.New(ferr.KindConfiguration, "no download credentials (player-data.json or FACTORIO_USERNAME/FACTORIO_TOKEN)")
	}

	specs := make([]depgraph.InstallSpec, 0, len(args))
	for _, arg := range args {
		spec, err := parseInstallSpec(arg)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	g, ml, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	plan, err := depgraph.PlanInstall(ctx, g, a.portal, specs, installRecursive)
	if err != nil {
		return err
	}
	if len(plan.Install) == 0 {
		fmt.Println("nothing to do: all requested mods already satisfy their requirements")
		return nil
	}

	dl := a.artifactDownloader()
	if err := depgraph.ApplyInstalls(ctx, dl, plan, a.jobs); err != nil {
		return err
	}

	for _, pi := range plan.Install {
		zipPath, err := a.placeArtifact(dl, installation.ModsDir(), pi)
		if err != nil {
			return fmt.Errorf("place %s %s: %w", pi.Identifier, pi.Release.Version, err)
		}
		fmt.Printf("installed %s %s -> %s\n", pi.Identifier, pi.Release.Version, zipPath)

		e, _ := ml.Get(pi.Identifier)
		e.Name = pi.Identifier
		if installEnable {
			e.Enabled = true
		}
		ml.Set(e)
	}

	return modfile.SaveModList(installation.ModListPath(), ml)
}

// placeArtifact resolves pi's already-downloaded cache entry to a file
// path and copies it into modsDir, named after the release's FileName
// (falling back to "<name>_<version>.zip" when the portal didn't supply
// one).
func (a *app) placeArtifact(dl artifactPlacer, modsDir string, pi depgraph.PlannedInstall) (string, error) {
	key, err := dl.Download(context.Background(), pi.Release)
	if err != nil {
		return "", err
	}
	srcPath, err := a.download.Path(key)
	if err != nil {
		return "", err
	}

	fileName := pi.Release.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("%s_%s.zip", pi.Identifier, pi.Release.Version)
	}
	destPath := filepath.Join(modsDir, fileName)

	if err := os.MkdirAll(modsDir, 0o755); err != nil {
		return "", ferr.Wrap(ferr.KindDirectoryNotWritable, "create mods directory", err)
	}
	if err := copyFile(srcPath, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

// artifactPlacer is the subset of *portal.ArtifactDownloader placeArtifact
// needs, so tests can fake it without a real HTTP stack.
type artifactPlacer interface {
	Download(ctx context.Context, release depgraph.Release) (string, error)
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return ferr.Wrap(ferr.KindFileNotFound, fmt.Sprintf("open %s", srcPath), err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copy into place: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), destPath)
}

// parseInstallSpec parses "name" or "name@X.Y.Z[-B]" into an InstallSpec.
func parseInstallSpec(arg string) (depgraph.InstallSpec, error) {
	name, versionStr, pinned := arg, "", false
	if i := strings.IndexByte(arg, '@'); i >= 0 {
		name, versionStr, pinned = arg[:i], arg[i+1:], true
	}
	if name == "" {
		return depgraph.InstallSpec{}, ferr.New(ferr.KindInvalidArgument, fmt.Sprintf("invalid mod spec %q", arg))
	}
	spec := depgraph.InstallSpec{Name: name}
	if pinned {
		v, err := depgraph.ParseModVersion(versionStr)
		if err != nil {
			return depgraph.InstallSpec{}, err
		}
		spec.Version, spec.Pinned = v, true
	}
	return spec, nil
}

// Set by the "uninstall" subcommand's flags.
var uninstallAll bool

// runUninstall is the "uninstall" subcommand's Exec. It removes the
// named mods' zip files and disables their mod-list.json entries (the
// entries themselves are kept); already-absent files are tolerated.
func runUninstall(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("uninstall requires at least one mod name")
	}

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	installation, err := a.requireInstallation()
	if err != nil {
		return err
	}
	if err := installation.RequireNotRunning(); err != nil {
		return err
	}

	g, ml, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	plan, err := depgraph.PlanUninstall(g, args, uninstallAll)
	if err != nil {
		return err
	}

	installed, err := installation.InstalledMods(a.infoJSON)
	if err != nil {
		return err
	}
	byIdentifier := make(map[string][]string)
	for _, m := range installed {
		byIdentifier[m.Identifier] = append(byIdentifier[m.Identifier], m.ZipPath)
	}

	for _, name := range plan.Uninstall {
		for _, zipPath := range byIdentifier[name] {
			if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", zipPath, err)
			}
		}
		e, ok := ml.Get(name)
		if ok {
			e.Enabled = false
			ml.Set(e)
		}
		fmt.Printf("uninstalled %s\n", name)
	}

	return modfile.SaveModList(installation.ModListPath(), ml)
}

// runUpdate is the "update" subcommand's Exec: updates the named mods
// (or every installed mod) to the newest compatible release.
// With no arguments, every installed (non-base) mod is considered.
func runUpdate(ctx context.Context, args []string) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	installation, err := a.requireInstallation()
	if err != nil {
		return err
	}
	if err := installation.RequireNotRunning(); err != nil {
		return err
	}

	g, _, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		for name := range g.Nodes {
			if name != depgraph.BaseModName {
				names = append(names, name)
			}
		}
	}

	plan, err := depgraph.PlanUpdate(ctx, g, a.portal, installation, names)
	if err != nil {
		return err
	}
	if len(plan.Install) == 0 {
		fmt.Println("everything is up to date")
		return nil
	}

	dl := a.artifactDownloader()
	if err := depgraph.ApplyInstalls(ctx, dl, plan, a.jobs); err != nil {
		return err
	}

	// update replaces a mod's zip in place; mod-list.json only tracks
	// name/enabled (and an optional pinned-version requirement that
	// update must not introduce), so there is nothing to re-save here.
	for _, pi := range plan.Install {
		zipPath, err := a.placeArtifact(dl, installation.ModsDir(), pi)
		if err != nil {
			return fmt.Errorf("place %s %s: %w", pi.Identifier, pi.Release.Version, err)
		}
		fmt.Printf("updated %s -> %s (%s)\n", pi.Identifier, pi.Release.Version, zipPath)
	}

	return nil
}

// runDownload is the "download" subcommand's Exec: fetches a release
// into the download cache without touching the installation at all
// (download is deliberately kept distinct from install).
func runDownload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("download requires exactly one mod name")
	}
	spec, err := parseInstallSpec(args[0])
	if err != nil {
		return err
	}

	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.creds.HasDownloadCreds() {
		return ferr.New(ferr.KindConfiguration, "no download credentials (player-data.json or FACTORIO_USERNAME/FACTORIO_TOKEN)")
	}

	releases, err := a.portal.Releases(ctx, spec.Name)
	if err != nil {
		return err
	}
	var req depgraph.VersionRequirement
	if spec.Pinned {
		req = depgraph.VersionRequirement{Present: true, Op: depgraph.OpEQ, Version: spec.Version}
	}
	release, ok := depgraph.SelectRelease(releases, req)
	if !ok {
		return ferr.New(ferr.KindVersionMismatch, fmt.Sprintf("no release of %s satisfies requirements", spec.Name))
	}

	key, err := a.artifactDownloader().Download(ctx, release)
	if err != nil {
		return err
	}
	path, err := a.download.Path(key)
	if err != nil {
		return err
	}
	fmt.Printf("downloaded %s %s -> %s\n", spec.Name, release.Version, path)
	return nil
}
