// Package gameinfo handles Factorio installation directory discovery
// and mods/*.zip enumeration. An Installation exposes the locally
// installed game version (read from the base mod's info.json, since
// base is always present) and a best-effort "is the game currently
// running" check built on internal/filelock.
package gameinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nesv/factorix/internal/cache"
	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/ferr"
	"github.com/nesv/factorix/internal/filelock"
	"github.com/nesv/factorix/internal/modfile"
)

// Installation is a Factorio installation directory: the place mods get
// installed into and (for a managed server) where it runs from.
type Installation struct {
	dir string
}

// Open collects information about a Factorio installation directory.
// Returns fs.ErrNotExist if dir does not exist.
func Open(dir string) (*Installation, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fs.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, ferr.New(ferr.KindDirectoryNotFound, fmt.Sprintf("%s is not a directory", dir))
	}
	return &Installation{dir: dir}, nil
}

// Dir returns the installation's root directory.
func (i *Installation) Dir() string { return i.dir }

// ModsDir returns the installation's mods directory.
func (i *Installation) ModsDir() string {
	return filepath.Join(i.dir, "mods")
}

// InstalledMods enumerates every *.zip in the mods directory and parses
// its info.json through store, producing the installed-mod set the
// dependency graph is built from.
func (i *Installation) InstalledMods(store *cache.Store) ([]depgraph.InstalledMod, error) {
	matches, err := filepath.Glob(filepath.Join(i.ModsDir(), "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("glob mods directory: %w", err)
	}

	mods := make([]depgraph.InstalledMod, 0, len(matches))
	for _, zipPath := range matches {
		m, err := modfile.LoadInstalledMod(store, zipPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", filepath.Base(zipPath), err)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// ModListPath returns the installation's mod-list.json path.
func (i *Installation) ModListPath() string {
	return filepath.Join(i.dir, "mod-list.json")
}

// baseInfoJSONPath is where the always-installed base mod's unpacked
// info.json lives, per Factorio's directory layout (base isn't
// distributed as a zip like other mods).
func (i *Installation) baseInfoJSONPath() string {
	return filepath.Join(i.dir, "data", "base", "info.json")
}

type baseInfo struct {
	Version string `json:"version"`
}

// GameVersion reads the installed Factorio game version out of
// data/base/info.json's "version" field, implementing
// depgraph.GameVersionSource. base is always installed, and its
// info.json version equals the game version.
func (i *Installation) GameVersion(ctx context.Context) (string, error) {
	data, err := os.ReadFile(i.baseInfoJSONPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ferr.Wrap(ferr.KindFileNotFound, "read data/base/info.json", err)
		}
		return "", fmt.Errorf("read data/base/info.json: %w", err)
	}

	var bi baseInfo
	if err := json.Unmarshal(data, &bi); err != nil {
		return "", ferr.Wrap(ferr.KindFileFormat, "parse data/base/info.json", err)
	}
	return bi.Version, nil
}

// runningSentinelName is the advisory lock file factorix itself holds
// for the duration of a managed server subprocess's lifetime.
const runningSentinelName = ".factorix-running.lock"

func (i *Installation) runningSentinelPath() string {
	return filepath.Join(i.dir, runningSentinelName)
}

// IsRunning reports whether factorix is currently holding this
// installation's running sentinel. This is a best-effort check: it only
// detects a game process that factorix itself started and is still
// tracking. A Factorio instance started outside factorix (the official
// launcher, a systemd unit, a different tool) is invisible to it, since
// platform.Detect only resolves filesystem paths rather than inspecting
// the process table; this sentinel is factorix's own substitute for
// that.
func (i *Installation) IsRunning() (bool, error) {
	path := i.runningSentinelPath()
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat running sentinel: %w", err)
	}

	// A present but stale sentinel (older than filelock.Lifetime) means a
	// previous factorix process crashed without cleaning up; treat that
	// as not running rather than refusing destructive commands forever.
	lock, err := filelock.TryAcquire(path)
	if errors.Is(err, filelock.ErrLocked) {
		return true, nil // someone else holds it: genuinely running
	}
	if err != nil {
		return false, fmt.Errorf("probe running sentinel: %w", err)
	}
	lock.Unlock()
	os.Remove(path)
	return false, nil
}

// MarkRunning creates and holds the running sentinel for the duration of
// fn, releasing it (and removing the file) once fn returns.
func (i *Installation) MarkRunning(fn func() error) error {
	path := i.runningSentinelPath()
	err := filelock.With(path, fn)
	os.Remove(path)
	return err
}

// RequireNotRunning refuses with KindGameRunning if the installation is
// currently running. Destructive commands call this before touching
// mod-list.json or the mods directory.
func (i *Installation) RequireNotRunning() error {
	running, err := i.IsRunning()
	if err != nil {
		return err
	}
	if running {
		return ferr.New(ferr.KindGameRunning, fmt.Sprintf("%s is currently running", i.dir))
	}
	return nil
}
