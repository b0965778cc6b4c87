// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package catalog is a local, searchable portal index: a sqlite-backed
// table of every mod the portal listed as of the last refresh, queried
// with github.com/Masterminds/squirrel. It is additive to the three
// named Cache Stores in internal/cache — the catalog is rebuilt *from*
// the api Store's cached /api/mods responses, never the cache of
// record itself.
//
// Refreshing pages through every result via internal/portal and
// replaces the whole catalog in one transaction, stamping the refresh
// time alongside it.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// Index is the local portal-catalog database.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database under dir.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Index{db: db}, nil
}

func initSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS mods (
			name TEXT PRIMARY KEY,
			title TEXT,
			owner TEXT,
			summary TEXT,
			category TEXT,
			downloads_count INTEGER
		) STRICT`,
		`CREATE TABLE IF NOT EXISTS latest_releases (
			name TEXT PRIMARY KEY REFERENCES mods(name),
			version TEXT,
			released_at TEXT,
			download_url TEXT,
			file_name TEXT,
			sha1 TEXT,
			factorio_version TEXT
		) STRICT`,
		`CREATE TABLE IF NOT EXISTS refreshed_at (id INTEGER PRIMARY KEY CHECK (id = 1), at TEXT) STRICT`,
	}
	for i, s := range statements {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (idx *Index) Close() error { return idx.db.Close() }

// Entry is one mod's row in the catalog.
type Entry struct {
	Name            string
	Title           string
	Owner           string
	Summary         string
	Category        string
	DownloadsCount  int
	Version         string
	ReleasedAt      time.Time
	FactorioVersion string
}

// Replace atomically replaces the catalog's contents with entries,
// stamping the refresh time, all inside one transaction.
func (idx *Index) Replace(ctx context.Context, entries []Entry) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM latest_releases`); err != nil {
		return fmt.Errorf("clear latest_releases: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mods`); err != nil {
		return fmt.Errorf("clear mods: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mods (name, title, owner, summary, category, downloads_count) VALUES (?, ?, ?, ?, ?, ?)`,
			e.Name, e.Title, e.Owner, e.Summary, e.Category, e.DownloadsCount,
		); err != nil {
			return fmt.Errorf("insert mod %s: %w", e.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO latest_releases (name, version, released_at, factorio_version) VALUES (?, ?, ?, ?)`,
			e.Name, e.Version, e.ReleasedAt.Format(time.RFC3339), e.FactorioVersion,
		); err != nil {
			return fmt.Errorf("insert release for %s: %w", e.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refreshed_at (id, at) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET at = excluded.at`,
		time.Now().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("stamp refresh time: %w", err)
	}

	return tx.Commit()
}

// RefreshedAt returns when Replace last ran, or the zero time if the
// catalog has never been refreshed.
func (idx *Index) RefreshedAt(ctx context.Context) (time.Time, error) {
	var at string
	err := idx.db.QueryRowContext(ctx, `SELECT at FROM refreshed_at WHERE id = 1`).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query refresh time: %w", err)
	}
	return time.Parse(time.RFC3339, at)
}

// SearchOptions narrows a Search call.
type SearchOptions struct {
	Categories []string
	SortByDate bool
	Limit      int
}

// Search runs a substring search over mod name/title/summary, optionally
// filtered by category, using a squirrel-built dynamic query.
func (idx *Index) Search(ctx context.Context, term string, opts SearchOptions) ([]Entry, error) {
	q := squirrel.Select(
		"m.name", "m.title", "m.owner", "m.summary", "m.category", "m.downloads_count",
		"r.version", "r.released_at", "r.factorio_version",
	).
		From("mods AS m").
		Join("latest_releases AS r USING (name)").
		Where(squirrel.Or{
			squirrel.Like{"m.name": "%" + term + "%"},
			squirrel.Like{"m.title": "%" + term + "%"},
			squirrel.Like{"m.summary": "%" + term + "%"},
		})

	if len(opts.Categories) > 0 {
		q = q.Where(squirrel.Eq{"m.category": opts.Categories})
	}
	if opts.SortByDate {
		q = q.OrderBy("r.released_at DESC")
	} else {
		q = q.OrderBy("m.downloads_count DESC")
	}
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			releasedAt string
		)
		if err := rows.Scan(&e.Name, &e.Title, &e.Owner, &e.Summary, &e.Category, &e.DownloadsCount,
			&e.Version, &releasedAt, &e.FactorioVersion); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.ReleasedAt, _ = time.Parse(time.RFC3339, releasedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
