// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	ff "github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// Set by root flags.
var (
	installDir string
	noHeaders  bool
	jobsFlag   int
)

func main() {
	rootFlags := ff.NewFlagSet("factorix")
	rootFlags.StringVar(&installDir, 'D', "directory", "", "Path to the Factorio installation directory")
	rootFlags.BoolVar(&noHeaders, 'H', "no-headers", "Disable headers on tabular output")
	rootFlags.IntVar(&jobsFlag, 'j', "jobs", 0, "Max concurrent downloads (0 = use config default)")

	listFlags := ff.NewFlagSet("list").SetParent(rootFlags)
	listFlags.BoolVar(&listInstalledOnly, 'i', "installed", "Only show installed mods")
	listFlags.StringVar(&listSearch, 's', "search", "", "Search the local portal catalog instead of the installation")
	listFlags.StringVar(&listCategory, 'c', "category", "", "Filter the catalog search by category")
	listCmd := &ff.Command{
		Name: "list", Usage: "factorix list [FLAGS]",
		ShortHelp: "List installed mods, or search the local portal catalog",
		Flags:     listFlags, Exec: runList,
	}

	checkFlags := ff.NewFlagSet("check").SetParent(rootFlags)
	checkCmd := &ff.Command{
		Name: "check", Usage: "factorix check",
		ShortHelp: "Validate the installed mod set",
		Flags:     checkFlags, Exec: runCheck,
	}

	showFlags := ff.NewFlagSet("show").SetParent(rootFlags)
	showCmd := &ff.Command{
		Name: "show", Usage: "factorix show MOD",
		ShortHelp: "Show a mod's details",
		Flags:     showFlags, Exec: runShow,
	}

	enableFlags := ff.NewFlagSet("enable").SetParent(rootFlags)
	enableCmd := &ff.Command{
		Name: "enable", Usage: "factorix enable MOD",
		ShortHelp: "Enable a mod and its required dependencies",
		Flags:     enableFlags, Exec: runEnable,
	}

	disableFlags := ff.NewFlagSet("disable").SetParent(rootFlags)
	disableCmd := &ff.Command{
		Name: "disable", Usage: "factorix disable MOD",
		ShortHelp: "Disable a mod and its enabled dependents",
		Flags:     disableFlags, Exec: runDisable,
	}

	installFlags := ff.NewFlagSet("install").SetParent(rootFlags)
	installFlags.BoolVar(&installRecursive, 'r', "recursive", "Also install missing required dependencies")
	installFlags.BoolVar(&installEnable, 'e', "enable", "Enable mods after installing them")
	installCmd := &ff.Command{
		Name: "install", Usage: "factorix install [FLAGS] MOD[@VERSION] ...",
		ShortHelp: "Install one or more mods",
		Flags:     installFlags, Exec: runInstall,
	}

	uninstallFlags := ff.NewFlagSet("uninstall").SetParent(rootFlags)
	uninstallFlags.BoolVar(&uninstallAll, 'a', "all", "Uninstall every named mod even if others depend on them")
	uninstallCmd := &ff.Command{
		Name: "uninstall", Usage: "factorix uninstall [FLAGS] MOD ...",
		ShortHelp: "Uninstall one or more mods",
		Flags:     uninstallFlags, Exec: runUninstall,
	}

	updateFlags := ff.NewFlagSet("update").SetParent(rootFlags)
	updateCmd := &ff.Command{
		Name: "update", Usage: "factorix update [MOD ...]",
		ShortHelp: "Update mods to the latest release matching the installed game version",
		Flags:     updateFlags, Exec: runUpdate,
	}

	downloadFlags := ff.NewFlagSet("download").SetParent(rootFlags)
	downloadCmd := &ff.Command{
		Name: "download", Usage: "factorix download MOD[@VERSION]",
		ShortHelp: "Download a mod's release into the download cache without installing it",
		Flags:     downloadFlags, Exec: runDownload,
	}

	syncFlags := ff.NewFlagSet("sync").SetParent(rootFlags)
	syncCmd := &ff.Command{
		Name: "sync", Usage: "factorix sync MOD-LIST-FILE",
		ShortHelp: "Plan the enable/disable/install changes needed to match a mod-list.json-shaped file",
		Flags:     syncFlags, Exec: runSync,
	}

	cacheStatFlags := ff.NewFlagSet("stat").SetParent(rootFlags)
	cacheStatCmd := &ff.Command{
		Name: "stat", Usage: "factorix cache stat",
		ShortHelp: "Show statistics for the three cache stores",
		Flags:     cacheStatFlags, Exec: runCacheStat,
	}
	cacheEvictFlags := ff.NewFlagSet("evict").SetParent(rootFlags)
	cacheEvictFlags.StringVar(&cacheEvictName, 'c', "cache", "", "Limit to one cache: download, api, or info_json")
	cacheEvictFlags.BoolVar(&cacheEvictAll, 'a', "all", "Evict every entry, not just expired ones")
	cacheEvictCmd := &ff.Command{
		Name: "evict", Usage: "factorix cache evict [FLAGS]",
		ShortHelp: "Evict expired (or all) entries from the cache stores",
		Flags:     cacheEvictFlags, Exec: runCacheEvict,
	}
	cacheRefreshFlags := ff.NewFlagSet("refresh-catalog").SetParent(rootFlags)
	cacheRefreshCmd := &ff.Command{
		Name: "refresh-catalog", Usage: "factorix cache refresh-catalog",
		ShortHelp: "Rebuild the local portal catalog index",
		Flags:     cacheRefreshFlags, Exec: runCacheRefresh,
	}

	cacheFlags := ff.NewFlagSet("cache").SetParent(rootFlags)
	cacheCmd := &ff.Command{
		Name: "cache", Usage: "factorix cache SUBCOMMAND ...",
		ShortHelp:   "Inspect or manage the cache stores",
		Flags:       cacheFlags,
		Subcommands: []*ff.Command{cacheEvictCmd, cacheRefreshCmd, cacheStatCmd},
	}

	root := &ff.Command{
		Name:      "factorix",
		Usage:     "factorix [FLAGS] SUBCOMMAND ...",
		ShortHelp: "Factorio mod manager",
		Flags:     rootFlags,
		Subcommands: []*ff.Command{
			cacheCmd,
			checkCmd,
			disableCmd,
			downloadCmd,
			enableCmd,
			installCmd,
			listCmd,
			showCmd,
			syncCmd,
			uninstallCmd,
			updateCmd,
		},
	}

	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, ff.ErrNoExec) {
			fmt.Fprintln(os.Stderr, ffhelp.Command(root))
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}
