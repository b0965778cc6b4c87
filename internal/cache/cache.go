// Package cache implements a content-addressed filesystem store: three
// independent named caches (download, api, info_json), each with its
// own TTL, sharing the same on-disk layout, locking, eviction, and
// stats machinery.
//
// Entries are staged in a temp file under the cache root and renamed
// into place once complete, keyed by a content-hash-derived filename
// (sha256(url) hex digest). Locking is built on internal/filelock, the
// same stale-aware advisory lock used by internal/gameinfo for the
// game-running sentinel.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nesv/factorix/internal/events"
	"github.com/nesv/factorix/internal/ferr"
	"github.com/nesv/factorix/internal/filelock"
)

// Names of the three named caches. Each gets its own root subdirectory
// and TTL.
const (
	NameDownload = "download"
	NameAPI      = "api"
	NameInfoJSON = "info_json"
)

// KeyFor returns the content-addressed key for url: a lowercase hex
// SHA-256 digest, collision-resistant, filesystem-safe, and stable
// across platforms.
func KeyFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// KeyForInfoJSON returns the content-addressed key for an info_json
// extraction, mixing the release's URL or archive path with a content
// descriptor so that two different versions of a mod (or two unrelated
// archives that happen to share a path) never alias to the same cache
// entry. descriptor is whichever of sha1 or size+mtime is available.
func KeyForInfoJSON(identity, descriptor string) string {
	return KeyFor(identity + "\x00" + descriptor)
}

// Store is one named, TTL-bound content-addressed cache.
type Store struct {
	name string
	root string
	ttl  time.Duration // 0 means unlimited
	bus  *events.Bus
	log  *zap.Logger
}

// Option configures a Store at construction.
type Option func(*Store)

// WithEvents attaches an event bus that receives cache.hit/cache.miss
// events for every Read call.
func WithEvents(bus *events.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger attaches a structured logger; a no-op logger is used if
// omitted.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New constructs a Store rooted at root, which is created if it does not
// exist. ttl of 0 means entries never expire.
func New(name, root string, ttl time.Duration, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, ferr.Wrap(ferr.KindDirectoryNotWritable, fmt.Sprintf("create cache root %s", root), err)
	}
	s := &Store{name: name, root: root, ttl: ttl, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the cache's name (one of NameDownload, NameAPI, NameInfoJSON).
func (s *Store) Name() string { return s.name }

// Path returns the on-disk body path for key, for callers (such as
// cmd/factorix's install step) that need to copy a cached entry
// onto the filesystem by name rather than reading it through Store.
func (s *Store) Path(key string) (string, error) {
	return s.bodyPath(key)
}

// bodyPath returns <root>/<k[0:2]>/<k[2:]> for key k, fanning entries out
// across up to 256 subdirectories.
func (s *Store) bodyPath(key string) (string, error) {
	if len(key) < 3 {
		return "", ferr.New(ferr.KindInvalidArgument, "cache key too short")
	}
	for _, r := range key {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return "", ferr.New(ferr.KindInvalidArgument, "cache key must be lowercase hex")
		}
	}
	return filepath.Join(s.root, key[:2], key[2:]), nil
}

func (s *Store) lockPath(key string) (string, error) {
	body, err := s.bodyPath(key)
	if err != nil {
		return "", err
	}
	return body + ".lock", nil
}

// Exist reports whether key's body is present and, if the cache has a
// finite TTL, not yet expired. Exist never mutates the store: expired
// entries are left on disk for Evict to reap.
func (s *Store) Exist(key string) (bool, error) {
	path, err := s.bodyPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return !s.expired(info.ModTime()), nil
}

func (s *Store) expired(mtime time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return time.Since(mtime) > s.ttl
}

// Read returns key's body bytes, or nil with no error on a miss or an
// expired entry. Publishes a cache.hit or cache.miss event tagged with
// the given url (the logical identifier, which may differ from key for
// info_json entries).
func (s *Store) Read(key, url string) ([]byte, error) {
	path, err := s.bodyPath(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		s.bus.CacheMiss(url)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if s.expired(info.ModTime()) {
		s.bus.CacheMiss(url)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s.bus.CacheHit(url)
	return data, nil
}

// WriteTo copies key's body to out, returning whether it was a hit.
func (s *Store) WriteTo(key string, out io.Writer) (hit bool, err error) {
	path, err := s.bodyPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if s.expired(info.ModTime()) {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return false, fmt.Errorf("copy %s: %w", path, err)
	}
	return true, nil
}

// Store atomically places src's contents at key's cache path, overwriting
// any existing entry. The move is a temp-file-then-rename within the
// same filesystem, with the temp file created as a sibling of the
// final path.
func (s *Store) Store(key string, src io.Reader) error {
	path, err := s.bodyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferr.Wrap(ferr.KindDirectoryNotWritable, fmt.Sprintf("create %s", filepath.Dir(path)), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// StoreFile is a convenience wrapper for Store that reads its body from a
// path on disk instead of an io.Reader.
func (s *Store) StoreFile(key, srcPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return ferr.Wrap(ferr.KindFileNotFound, fmt.Sprintf("open %s", srcPath), err)
	}
	defer f.Close()
	return s.Store(key, f)
}

// Delete removes key's body, reporting whether it existed. The lock file
// (if any) is left untouched.
func (s *Store) Delete(key string) (existed bool, err error) {
	path, err := s.bodyPath(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

// WithLock acquires the exclusive, stale-aware advisory lock for key and
// runs fn, releasing the lock on every exit path. Callers doing a
// double-checked-locking GET should re-check for a hit inside fn before
// doing any work.
func (s *Store) WithLock(key string, fn func() error) error {
	lp, err := s.lockPath(key)
	if err != nil {
		return err
	}
	return filelock.With(lp, fn)
}

// EntryInfo describes one cache entry as surfaced by Each.
type EntryInfo struct {
	Key     string
	Size    int64
	Age     time.Duration
	Expired bool
}

// Each enumerates every valid (non-lock-file) entry under the store,
// regardless of expiry, surfacing size/age/expired for each.
func (s *Store) Each(fn func(EntryInfo) error) error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".lock" {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		key = key[:2] + key[3:] // undo the "<2>/<rest>" fan-out separator
		info, err := d.Info()
		if err != nil {
			return err
		}
		age := time.Since(info.ModTime())
		return fn(EntryInfo{
			Key:     key,
			Size:    info.Size(),
			Age:     age,
			Expired: s.ttl > 0 && age > s.ttl,
		})
	})
}

// EvictPredicate selects which entries Evict removes.
type EvictPredicate func(EntryInfo) bool

// EvictAll matches every entry.
func EvictAll() EvictPredicate { return func(EntryInfo) bool { return true } }

// EvictExpired matches entries past the store's TTL. It is a no-op
// (matches nothing) for unlimited-TTL stores.
func EvictExpired() EvictPredicate {
	return func(e EntryInfo) bool { return e.Expired }
}

// EvictOlderThan matches entries whose age exceeds age.
func EvictOlderThan(age time.Duration) EvictPredicate {
	return func(e EntryInfo) bool { return e.Age > age }
}

// Evict removes every entry matching predicate, returning the count
// removed and total bytes freed. Lock files are never removed.
func (s *Store) Evict(predicate EvictPredicate) (count int, bytesFreed int64, err error) {
	var toRemove []EntryInfo
	if err := s.Each(func(e EntryInfo) error {
		if predicate(e) {
			toRemove = append(toRemove, e)
		}
		return nil
	}); err != nil {
		return 0, 0, err
	}

	for _, e := range toRemove {
		existed, err := s.Delete(e.Key)
		if err != nil {
			s.log.Warn("evict: delete failed", zap.String("cache", s.name), zap.String("key", e.Key), zap.Error(err))
			continue
		}
		if existed {
			count++
			bytesFreed += e.Size
		}
	}
	return count, bytesFreed, nil
}

// Stats summarizes a Store's current contents.
type Stats struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int

	SizeSum int64
	SizeAvg float64
	SizeMin int64
	SizeMax int64

	OldestAge time.Duration
	NewestAge time.Duration
	AvgAge    time.Duration

	StaleLocks int
}

// Stats computes aggregate statistics over the store's entries.
func (s *Store) Stats() (Stats, error) {
	var (
		st       Stats
		sizes    []int64
		ages     []time.Duration
		totalAge time.Duration
	)

	if err := s.Each(func(e EntryInfo) error {
		st.TotalEntries++
		if e.Expired {
			st.ExpiredEntries++
		} else {
			st.ValidEntries++
		}
		sizes = append(sizes, e.Size)
		ages = append(ages, e.Age)
		totalAge += e.Age
		return nil
	}); err != nil {
		return Stats{}, err
	}

	if len(sizes) > 0 {
		sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
		st.SizeMin = sizes[0]
		st.SizeMax = sizes[len(sizes)-1]
		for _, sz := range sizes {
			st.SizeSum += sz
		}
		st.SizeAvg = float64(st.SizeSum) / float64(len(sizes))
	}

	if len(ages) > 0 {
		sort.Slice(ages, func(i, j int) bool { return ages[i] < ages[j] })
		st.NewestAge = ages[0]
		st.OldestAge = ages[len(ages)-1]
		st.AvgAge = totalAge / time.Duration(len(ages))
	}

	staleLocks, err := s.countStaleLocks()
	if err != nil {
		return Stats{}, err
	}
	st.StaleLocks = staleLocks

	return st, nil
}

func (s *Store) countStaleLocks() (int, error) {
	count := 0
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".lock" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if time.Since(info.ModTime()) > filelock.Lifetime {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
