// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package modfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/ferr"
)

// modListEntryJSON is mod-list.json's per-entry shape:
// "{name, enabled, version?}".
type modListEntryJSON struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Version string `json:"version,omitempty"`
}

type modListFile struct {
	Mods []modListEntryJSON `json:"mods"`
}

// LoadModList reads mod-list.json at path into a *depgraph.ModList,
// preserving entry order.
func LoadModList(path string) (*depgraph.ModList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferr.Wrap(ferr.KindFileNotFound, fmt.Sprintf("open %s", path), err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file modListFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, ferr.Wrap(ferr.KindFileFormat, fmt.Sprintf("parse %s", path), err)
	}

	ml := depgraph.NewModList()
	for _, e := range file.Mods {
		entry := depgraph.ModListEntry{Name: e.Name, Enabled: e.Enabled}
		if e.Version != "" {
			v, err := depgraph.ParseModVersion(e.Version)
			if err != nil {
				return nil, fmt.Errorf("%s: entry %q: %w", path, e.Name, err)
			}
			entry.Version, entry.HasVersion = v, true
		}
		ml.Set(entry)
	}
	return ml, nil
}

// SaveModList writes ml to path in mod-list.json's shape, preserving
// entry order.
func SaveModList(path string, ml *depgraph.ModList) error {
	file := modListFile{}
	for _, e := range ml.Entries() {
		entry := modListEntryJSON{Name: e.Name, Enabled: e.Enabled}
		if e.HasVersion {
			entry.Version = e.Version.String()
		}
		file.Mods = append(file.Mods, entry)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mod-list.json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferr.Wrap(ferr.KindDirectoryNotWritable, fmt.Sprintf("write %s", path), err)
	}
	return nil
}
