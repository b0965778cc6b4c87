// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main is the factorix CLI: a thin argument parser kept
// separate from the core logic it drives. Every operation it exposes
// (list/check/show/enable/disable/install/uninstall/update/download/
// sync/cache-stat/cache-evict) is a thin Exec over internal/depgraph,
// internal/modfile, internal/portal, internal/catalog, and
// internal/gameinfo; this file only wires those packages together.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nesv/factorix/internal/auth"
	"github.com/nesv/factorix/internal/cache"
	"github.com/nesv/factorix/internal/catalog"
	"github.com/nesv/factorix/internal/config"
	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/events"
	"github.com/nesv/factorix/internal/gameinfo"
	"github.com/nesv/factorix/internal/httpstack"
	"github.com/nesv/factorix/internal/modfile"
	"github.com/nesv/factorix/internal/platform"
	"github.com/nesv/factorix/internal/portal"
)

// app bundles every long-lived collaborator a command's Exec function
// needs. It is built once by bootstrap, after root flags have been
// parsed, and closed by main before exit.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	bus    *events.Bus
	tty    bool
	noHead bool
	jobs   int

	installDir string
	install    *gameinfo.Installation

	download *cache.Store
	api      *cache.Store
	infoJSON *cache.Store

	http   httpstack.Client
	portal *portal.Client
	creds  auth.Credentials

	catalogIdx *catalog.Index
}

// bootstrap resolves configuration and constructs every collaborator.
// installDir may be "" if the command does not need an installation
// (e.g. cache stat against a bare cache directory still works, but most
// commands require it).
func bootstrap(installDir string, noHeaders bool, jobsFlag int) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if jobsFlag > 0 {
		cfg.Jobs = jobsFlag
	}

	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	paths, err := platform.Detect().Paths()
	if err != nil {
		return nil, fmt.Errorf("resolve platform paths: %w", err)
	}
	cacheRoot := filepath.Join(paths.Cache, "factorix")
	dataRoot := filepath.Join(paths.Data, "factorix")

	bus := &events.Bus{}

	downloadStore, err := cache.New(cache.NameDownload, filepath.Join(cacheRoot, cache.NameDownload), cfg.CacheTTL.Download, cache.WithEvents(bus), cache.WithLogger(log))
	if err != nil {
		return nil, err
	}
	apiStore, err := cache.New(cache.NameAPI, filepath.Join(cacheRoot, cache.NameAPI), cfg.CacheTTL.API, cache.WithEvents(bus), cache.WithLogger(log))
	if err != nil {
		return nil, err
	}
	infoJSONStore, err := cache.New(cache.NameInfoJSON, filepath.Join(cacheRoot, cache.NameInfoJSON), cfg.CacheTTL.InfoJSON, cache.WithEvents(bus), cache.WithLogger(log))
	if err != nil {
		return nil, err
	}

	transport := httpstack.NewTransport(cfg.Timeouts, cfg.MaskedQueryParams, log)
	retrier := httpstack.NewRetrier(transport, cfg.Retry, log)
	httpClient := httpstack.NewCacheLayer(retrier, apiStore)

	portalClient := portal.New(httpClient, cfg.PortalBaseURL, cfg.APIKey)

	catalogIdx, err := catalog.Open(dataRoot)
	if err != nil {
		return nil, err
	}

	creds := auth.FromEnv()
	var inst *gameinfo.Installation
	if installDir != "" {
		inst, err = gameinfo.Open(installDir)
		if err != nil {
			catalogIdx.Close()
			return nil, err
		}
		if pd, pdErr := auth.FromPlayerData(installDir); pdErr == nil {
			creds = creds.Merge(pd)
		}
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		bus:        bus,
		tty:        isTTY(),
		noHead:     noHeaders,
		jobs:       cfg.Jobs,
		installDir: installDir,
		install:    inst,
		download:   downloadStore,
		api:        apiStore,
		infoJSON:   infoJSONStore,
		http:       httpClient,
		portal:     portalClient,
		creds:      creds,
		catalogIdx: catalogIdx,
	}
	a.subscribeProgress()
	return a, nil
}

func (a *app) Close() error {
	return a.catalogIdx.Close()
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("FACTORIX_DEBUG") == "1" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
}

// requireInstallation fails commands that need an installation directory
// but were run without -D/--directory.
func (a *app) requireInstallation() (*gameinfo.Installation, error) {
	if a.install == nil {
		return nil, fmt.Errorf("no Factorio installation directory given (-D/--directory)")
	}
	return a.install, nil
}

// loadGraph builds the dependency graph for the active installation:
// InstalledMods from disk, mod-list.json, then BuildGraph.
func (a *app) loadGraph(ctx context.Context) (*depgraph.Graph, *depgraph.ModList, error) {
	inst, err := a.requireInstallation()
	if err != nil {
		return nil, nil, err
	}

	installed, err := inst.InstalledMods(a.infoJSON)
	if err != nil {
		return nil, nil, err
	}

	ml, err := modfile.LoadModList(inst.ModListPath())
	if err != nil {
		return nil, nil, err
	}

	return depgraph.BuildGraph(installed, ml), ml, nil
}

func (a *app) artifactDownloader() *portal.ArtifactDownloader {
	return portal.NewArtifactDownloader(a.http, a.download, a.cfg.PortalBaseURL, a.creds, a.bus)
}
