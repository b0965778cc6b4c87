// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/schollz/progressbar/v3"

	"github.com/nesv/factorix/internal/portal"
)

// Refresh pulls every page of /api/mods through client and replaces the
// catalog's contents. Paging happens in-memory, with no separate
// temp-file staging step, since the API client already caches each
// page's raw response in the api Cache Store.
func Refresh(ctx context.Context, idx *Index, client *portal.Client, showProgress bool) error {
	first, pagination, err := client.ListMods(ctx, url.Values{})
	if err != nil {
		return fmt.Errorf("list mods page 1: %w", err)
	}

	entries := make([]Entry, 0, pagination.Count)
	appendPage(&entries, first)

	var bar *progressbar.ProgressBar
	if showProgress && pagination.PageCount > 1 {
		bar = progressbar.NewOptions(pagination.PageCount,
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Refreshing mod catalog"),
		)
		bar.Add(1)
	}

	for page := 2; page <= pagination.PageCount; page++ {
		q := url.Values{"page": []string{strconv.Itoa(page)}}
		results, _, err := client.ListMods(ctx, q)
		if err != nil {
			return fmt.Errorf("list mods page %d: %w", page, err)
		}
		appendPage(&entries, results)
		if bar != nil {
			bar.Add(1)
		}
	}

	return idx.Replace(ctx, entries)
}

func appendPage(entries *[]Entry, page []portal.ModSummary) {
	for _, m := range page {
		*entries = append(*entries, Entry{
			Name:            m.Name,
			Title:           m.Title,
			Owner:           m.Owner,
			Summary:         m.Summary,
			Category:        m.Category,
			DownloadsCount:  m.DownloadsCount,
			Version:         m.LatestRelease.Version.String(),
			ReleasedAt:      m.LatestRelease.ReleasedAt,
			FactorioVersion: m.LatestRelease.FactorioVersion,
		})
	}
}
