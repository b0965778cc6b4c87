package modfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/factorix/internal/depgraph"
)

func TestLoadModListPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod-list.json")
	data := []byte(`{"mods":[
		{"name":"base","enabled":true},
		{"name":"flib","enabled":true,"version":"0.12.0"},
		{"name":"aai-industry","enabled":false}
	]}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	ml, err := LoadModList(path)
	if err != nil {
		t.Fatal(err)
	}

	entries := ml.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	wantNames := []string{"base", "flib", "aai-industry"}
	for i, name := range wantNames {
		if entries[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, entries[i].Name, name)
		}
	}

	flib, ok := ml.Get("flib")
	if !ok || !flib.HasVersion || !flib.Version.Equal(depgraph.ModVersion{Minor: 12}) {
		t.Errorf("flib entry = %+v, want a pinned version 0.12.0", flib)
	}
}

func TestLoadModListMissingFile(t *testing.T) {
	_, err := LoadModList(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSaveModListRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod-list.json")

	ml := depgraph.NewModList()
	ml.Set(depgraph.ModListEntry{Name: "flib", Enabled: true, Version: depgraph.ModVersion{Minor: 12}, HasVersion: true})
	ml.Set(depgraph.ModListEntry{Name: "aai-industry", Enabled: false})

	if err := SaveModList(path, ml); err != nil {
		t.Fatal(err)
	}

	got, err := LoadModList(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries()) != len(ml.Entries()) {
		t.Fatalf("got %d entries, want %d", len(got.Entries()), len(ml.Entries()))
	}
	for i, e := range ml.Entries() {
		ge := got.Entries()[i]
		if ge.Name != e.Name || ge.Enabled != e.Enabled || ge.HasVersion != e.HasVersion {
			t.Errorf("entry %d: got %+v, want %+v", i, ge, e)
		}
	}
}
