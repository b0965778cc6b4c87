package catalog

import (
	"context"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRefreshedAtIsZeroBeforeFirstReplace(t *testing.T) {
	idx := openTestIndex(t)
	at, err := idx.RefreshedAt(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !at.IsZero() {
		t.Errorf("got %v, want the zero time", at)
	}
}

func TestReplaceThenRefreshedAtIsRecent(t *testing.T) {
	idx := openTestIndex(t)
	entries := []Entry{
		{Name: "flib", Title: "Factorio Library", Owner: "raiguard", Version: "0.12.0", ReleasedAt: time.Now()},
	}
	if err := idx.Replace(context.Background(), entries); err != nil {
		t.Fatal(err)
	}

	at, err := idx.RefreshedAt(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(at) > time.Minute {
		t.Errorf("refresh time %v is not recent", at)
	}
}

func TestReplaceDiscardsThePreviousContents(t *testing.T) {
	idx := openTestIndex(t)
	if err := idx.Replace(context.Background(), []Entry{{Name: "old-mod", Title: "Old Mod"}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Replace(context.Background(), []Entry{{Name: "new-mod", Title: "New Mod"}}); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(context.Background(), "old", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for the discarded mod, want 0", len(results))
	}

	results, err = idx.Search(context.Background(), "new", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "new-mod" {
		t.Errorf("got %+v", results)
	}
}

func TestSearchMatchesNameTitleOrSummary(t *testing.T) {
	idx := openTestIndex(t)
	entries := []Entry{
		{Name: "flib", Title: "Factorio Library", Summary: "shared utility code", Category: "library", DownloadsCount: 500},
		{Name: "aai-industry", Title: "AAI Industry", Summary: "industrial automation", Category: "content", DownloadsCount: 200},
	}
	if err := idx.Replace(context.Background(), entries); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(context.Background(), "industr", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "aai-industry" {
		t.Errorf("got %+v", results)
	}
}

func TestSearchFiltersByCategory(t *testing.T) {
	idx := openTestIndex(t)
	entries := []Entry{
		{Name: "flib", Title: "Factorio Library", Category: "library"},
		{Name: "aai-industry", Title: "AAI Industry", Category: "content"},
	}
	if err := idx.Replace(context.Background(), entries); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(context.Background(), "a", SearchOptions{Categories: []string{"library"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "flib" {
		t.Errorf("got %+v", results)
	}
}

func TestSearchOrdersByDownloadsCountByDefault(t *testing.T) {
	idx := openTestIndex(t)
	entries := []Entry{
		{Name: "low", Title: "low mod", DownloadsCount: 10},
		{Name: "high", Title: "high mod", DownloadsCount: 1000},
	}
	if err := idx.Replace(context.Background(), entries); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(context.Background(), "mod", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Name != "high" || results[1].Name != "low" {
		t.Errorf("got %+v, want high before low", results)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	idx := openTestIndex(t)
	entries := []Entry{
		{Name: "mod-a", Title: "mod a", DownloadsCount: 3},
		{Name: "mod-b", Title: "mod b", DownloadsCount: 2},
		{Name: "mod-c", Title: "mod c", DownloadsCount: 1},
	}
	if err := idx.Replace(context.Background(), entries); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(context.Background(), "mod", SearchOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}
