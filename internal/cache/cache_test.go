package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestKeyForIsStableAndContentAddressed(t *testing.T) {
	a := KeyFor("https://mods.factorio.com/api/mods/flib")
	b := KeyFor("https://mods.factorio.com/api/mods/flib")
	if a != b {
		t.Fatal("KeyFor must be deterministic")
	}
	c := KeyFor("https://mods.factorio.com/api/mods/other")
	if a == c {
		t.Fatal("different urls must not collide")
	}
	if len(a) != 64 {
		t.Errorf("got a %d-char key, want a 64-char hex sha256 digest", len(a))
	}
}

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := New(NameDownload, t.TempDir(), ttl)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStoreAndReadRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	key := KeyFor("https://example.com/a.zip")

	if err := s.Store(key, bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatal(err)
	}

	data, err := s.Read(key, "https://example.com/a.zip")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want %q", data, "hello")
	}
}

func TestReadMissReturnsNilWithNoError(t *testing.T) {
	s := newTestStore(t, 0)
	data, err := s.Read(KeyFor("https://example.com/missing.zip"), "https://example.com/missing.zip")
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("got %q, want a nil miss", data)
	}
}

func TestReadExpiredEntryIsTreatedAsAMiss(t *testing.T) {
	s := newTestStore(t, time.Nanosecond)
	key := KeyFor("https://example.com/a.zip")
	if err := s.Store(key, bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	data, err := s.Read(key, "https://example.com/a.zip")
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Error("an expired entry must read as a miss")
	}

	exists, err := s.Exist(key)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("Exist must also report an expired entry as absent")
	}
}

func TestPathReturnsTheFannedOutLocation(t *testing.T) {
	s := newTestStore(t, 0)
	key := KeyFor("https://example.com/a.zip")
	path, err := s.Path(key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, s.root) {
		t.Errorf("path %q is not under the store root %q", path, s.root)
	}
	if !strings.Contains(path, key[:2]) {
		t.Errorf("path %q does not fan out on the key's first two characters", path)
	}
}

func TestPathRejectsMalformedKeys(t *testing.T) {
	s := newTestStore(t, 0)
	for _, bad := range []string{"", "ab", "not-hex-at-all", "UPPERCASE00"} {
		if _, err := s.Path(bad); err == nil {
			t.Errorf("Path(%q) should have failed", bad)
		}
	}
}

func TestDeleteReportsWhetherTheEntryExisted(t *testing.T) {
	s := newTestStore(t, 0)
	key := KeyFor("https://example.com/a.zip")

	existed, err := s.Delete(key)
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("Delete of a never-stored key should report existed=false")
	}

	if err := s.Store(key, bytes.NewReader([]byte("x"))); err != nil {
		t.Fatal(err)
	}
	existed, err = s.Delete(key)
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Error("Delete of a stored key should report existed=true")
	}
}

func TestEvictExpiredOnlyRemovesExpiredEntries(t *testing.T) {
	s := newTestStore(t, 50*time.Millisecond)
	freshKey := KeyFor("fresh")
	staleKey := KeyFor("stale")

	if err := s.Store(staleKey, bytes.NewReader([]byte("stale"))); err != nil {
		t.Fatal(err)
	}
	time.Sleep(75 * time.Millisecond)
	if err := s.Store(freshKey, bytes.NewReader([]byte("fresh"))); err != nil {
		t.Fatal(err)
	}

	count, freed, err := s.Evict(EvictExpired())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("evicted %d entries, want 1", count)
	}
	if freed != int64(len("stale")) {
		t.Errorf("freed %d bytes, want %d", freed, len("stale"))
	}

	if exists, _ := s.Exist(freshKey); !exists {
		t.Error("the fresh entry should have survived")
	}
	if exists, _ := s.Exist(staleKey); exists {
		t.Error("the stale entry should have been evicted")
	}
}

func TestStatsSummarizesEntries(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Store(KeyFor("a"), bytes.NewReader([]byte("12345"))); err != nil {
		t.Fatal(err)
	}
	if err := s.Store(KeyFor("b"), bytes.NewReader([]byte("1234567890"))); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalEntries != 2 || st.ValidEntries != 2 || st.ExpiredEntries != 0 {
		t.Errorf("Stats = %+v, want 2 total/valid, 0 expired", st)
	}
	if st.SizeSum != 15 {
		t.Errorf("SizeSum = %d, want 15", st.SizeSum)
	}
	if st.SizeMin != 5 || st.SizeMax != 10 {
		t.Errorf("SizeMin/Max = %d/%d, want 5/10", st.SizeMin, st.SizeMax)
	}
}
