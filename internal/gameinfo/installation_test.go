package gameinfo

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/factorix/internal/cache"
)

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected an error for a missing installation directory")
	}
}

func TestOpenRejectsAFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected an error when the path is not a directory")
	}
}

func TestDirAndModsDirAndModListPath(t *testing.T) {
	dir := t.TempDir()
	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if inst.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", inst.Dir(), dir)
	}
	if inst.ModsDir() != filepath.Join(dir, "mods") {
		t.Errorf("ModsDir() = %q", inst.ModsDir())
	}
	if inst.ModListPath() != filepath.Join(dir, "mod-list.json") {
		t.Errorf("ModListPath() = %q", inst.ModListPath())
	}
}

func TestGameVersionReadsBaseInfoJSON(t *testing.T) {
	dir := t.TempDir()
	baseDir := filepath.Join(dir, "data", "base")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(baseDir, "info.json"), []byte(`{"version":"1.1.60"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	version, err := inst.GameVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if version != "1.1.60" {
		t.Errorf("GameVersion() = %q, want 1.1.60", version)
	}
}

func TestGameVersionMissingBaseInfoJSON(t *testing.T) {
	dir := t.TempDir()
	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.GameVersion(context.Background()); err == nil {
		t.Fatal("expected an error when data/base/info.json is missing")
	}
}

func TestInstalledModsEnumeratesZips(t *testing.T) {
	dir := t.TempDir()
	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(inst.ModsDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	writeModZip(t, inst.ModsDir(), "flib", `{"name":"flib","version":"0.12.0"}`)
	writeModZip(t, inst.ModsDir(), "aai-industry", `{"name":"aai-industry","version":"0.1.0","dependencies":["flib >= 0.12.0"]}`)

	store, err := cache.New(cache.NameInfoJSON, t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	mods, err := inst.InstalledMods(store)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 {
		t.Fatalf("got %d installed mods, want 2", len(mods))
	}
}

func TestIsRunningFalseWithoutSentinel(t *testing.T) {
	dir := t.TempDir()
	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	running, err := inst.IsRunning()
	if err != nil {
		t.Fatal(err)
	}
	if running {
		t.Error("IsRunning() should be false with no sentinel present")
	}
	if err := inst.RequireNotRunning(); err != nil {
		t.Errorf("RequireNotRunning() = %v, want nil", err)
	}
}

func TestMarkRunningThenRequireNotRunningFails(t *testing.T) {
	dir := t.TempDir()
	inst, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	blockAgain := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- inst.MarkRunning(func() error {
			close(started)
			<-blockAgain
			return nil
		})
	}()
	<-started
	defer close(blockAgain)

	if err := inst.RequireNotRunning(); err == nil {
		t.Error("RequireNotRunning() should fail while the sentinel is held")
	}
}

func writeModZip(t *testing.T, dir, name, infoJSON string) string {
	t.Helper()
	zipPath := filepath.Join(dir, name+".zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(name + "/info.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(infoJSON)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}
