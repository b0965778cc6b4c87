// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package modfile implements the info.json/mod-list.json codecs,
// treated as external collaborators, plus the sync diff built on top
// of them. Zip extraction lands its result in the info_json Cache
// Store instead of re-extracting on every call.
package modfile

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nesv/factorix/internal/cache"
	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/ferr"
)

// rawInfo mirrors info.json's shape: name, version, title, author,
// dependencies[], and factorio_version at minimum.
type rawInfo struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Dependencies    []string `json:"dependencies"`
	FactorioVersion string   `json:"factorio_version"`
}

// ExtractInfoJSON reads info.json out of a mod zip at zipPath, caching
// the raw bytes under identity+descriptor in the info_json Store so a
// repeat call against the same archive skips the zip scan entirely.
// identity is normally the archive's download URL (or its absolute local
// path when side-loaded); descriptor disambiguates versions sharing an
// identity.
func ExtractInfoJSON(store *cache.Store, identity, descriptor, zipPath string) ([]byte, error) {
	key := cache.KeyForInfoJSON(identity, descriptor)

	if body, err := store.Read(key, identity); err != nil {
		return nil, err
	} else if body != nil {
		return body, nil
	}

	var blob []byte
	err := store.WithLock(key, func() error {
		if body, err := store.Read(key, identity); err != nil {
			return err
		} else if body != nil {
			blob = body
			return nil
		}

		raw, err := extractFromZip(zipPath)
		if err != nil {
			return err
		}
		blob = raw
		return store.Store(key, bytes.NewReader(raw))
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func extractFromZip(zipPath string) ([]byte, error) {
	f, err := os.Open(zipPath)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindFileNotFound, fmt.Sprintf("open %s", zipPath), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", zipPath, err)
	}

	zr, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return nil, ferr.Wrap(ferr.KindFileFormat, fmt.Sprintf("open zip %s", zipPath), err)
	}

	var target *zip.File
	for _, zf := range zr.File {
		if filepath.Base(zf.Name) == "info.json" {
			target = zf
			break
		}
	}
	if target == nil {
		return nil, ferr.New(ferr.KindFileFormat, fmt.Sprintf("%s: no info.json found", zipPath))
	}

	rc, err := target.Open()
	if err != nil {
		return nil, fmt.Errorf("open info.json in %s: %w", zipPath, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// ParseInfoJSON decodes raw info.json bytes into depgraph's ModInfo,
// parsing each dependency string with depgraph.ParseDependency.
func ParseInfoJSON(blob []byte) (depgraph.ModInfo, error) {
	var raw rawInfo
	if err := json.Unmarshal(blob, &raw); err != nil {
		return depgraph.ModInfo{}, ferr.Wrap(ferr.KindFileFormat, "parse info.json", err)
	}

	deps := make([]depgraph.ModDependency, 0, len(raw.Dependencies))
	for _, s := range raw.Dependencies {
		d, err := depgraph.ParseDependency(s)
		if err != nil {
			return depgraph.ModInfo{}, fmt.Errorf("info.json dependency %q: %w", s, err)
		}
		deps = append(deps, d)
	}

	version, err := depgraph.ParseModVersion(raw.Version)
	if err != nil {
		return depgraph.ModInfo{}, err
	}

	return depgraph.ModInfo{
		Name:            raw.Name,
		Title:           raw.Title,
		Author:          raw.Author,
		Version:         version,
		Dependencies:    deps,
		FactorioVersion: raw.FactorioVersion,
	}, nil
}

// LoadInstalledMod extracts and parses a mod zip's info.json in one step.
func LoadInstalledMod(store *cache.Store, zipPath string) (depgraph.InstalledMod, error) {
	blob, err := ExtractInfoJSON(store, zipPath, fileDescriptor(zipPath), zipPath)
	if err != nil {
		return depgraph.InstalledMod{}, err
	}
	info, err := ParseInfoJSON(blob)
	if err != nil {
		return depgraph.InstalledMod{}, err
	}
	return depgraph.InstalledMod{
		Identifier: info.Name,
		Version:    info.Version,
		Info:       info,
		ZipPath:    zipPath,
	}, nil
}

// fileDescriptor mixes a local zip's size and modification time into
// the info_json cache key for side-loaded archives, where no sha1 is
// available without a full-file hash.
func fileDescriptor(path string) string {
	stat, err := os.Stat(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%d-%d", stat.Size(), stat.ModTime().UnixNano())
}
