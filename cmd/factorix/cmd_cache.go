// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"

	humanize "github.com/dustin/go-humanize"

	"github.com/nesv/factorix/internal/cache"
	"github.com/nesv/factorix/internal/catalog"
)

// Set by the "cache evict" subcommand's flags.
var (
	cacheEvictName string
	cacheEvictAll  bool
)

// runCacheStat is "cache stat"'s Exec: prints the three named Cache
// Stores' aggregate statistics.
func runCacheStat(ctx context.Context, args []string) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	stores := []*cache.Store{a.download, a.api, a.infoJSON}
	for _, store := range stores {
		st, err := store.Stats()
		if err != nil {
			return fmt.Errorf("stats for %s: %w", store.Name(), err)
		}
		fmt.Printf("%s:\n", store.Name())
		fmt.Printf("  entries: %d valid, %d expired\n", st.ValidEntries, st.ExpiredEntries)
		fmt.Printf("  size:    %s total, %s average\n", humanize.Bytes(uint64(st.SizeSum)), humanize.Bytes(uint64(st.SizeAvg)))
		if st.TotalEntries > 0 {
			fmt.Printf("  age:     %s newest, %s oldest\n", st.NewestAge.Round(1e9), st.OldestAge.Round(1e9))
		}
		if st.StaleLocks > 0 {
			fmt.Printf("  stale locks: %d\n", st.StaleLocks)
		}
	}
	return nil
}

// runCacheEvict is "cache evict"'s Exec: evicts expired entries from
// every store (or --all for everything), optionally scoped to one named
// store with --cache.
func runCacheEvict(ctx context.Context, args []string) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	stores := map[string]*cache.Store{
		cache.NameDownload: a.download,
		cache.NameAPI:      a.api,
		cache.NameInfoJSON: a.infoJSON,
	}

	var targets []*cache.Store
	if cacheEvictName != "" {
		store, ok := stores[cacheEvictName]
		if !ok {
			return fmt.Errorf("unknown cache %q (want download, api, or info_json)", cacheEvictName)
		}
		targets = []*cache.Store{store}
	} else {
		targets = []*cache.Store{a.download, a.api, a.infoJSON}
	}

	predicate := cache.EvictExpired()
	if cacheEvictAll {
		predicate = cache.EvictAll()
	}

	for _, store := range targets {
		count, freed, err := store.Evict(predicate)
		if err != nil {
			return fmt.Errorf("evict %s: %w", store.Name(), err)
		}
		fmt.Printf("%s: evicted %d entries, freed %s\n", store.Name(), count, humanize.Bytes(uint64(freed)))
	}
	return nil
}

// runCacheRefresh is "cache refresh-catalog"'s Exec: rebuilds
// internal/catalog's local portal index by paging through /api/mods.
func runCacheRefresh(ctx context.Context, args []string) error {
	a, err := bootstrap(installDir, noHeaders, jobsFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := catalog.Refresh(ctx, a.catalogIdx, a.portal, a.tty); err != nil {
		return err
	}
	fmt.Println("catalog refreshed")
	return nil
}
