// Package filelock implements the exclusive, stale-aware advisory file
// lock used by both the content-addressed cache store
// (internal/cache) and the game-running sentinel (internal/gameinfo).
//
// A lock is just a file on disk, held exclusive for the duration of the
// critical section via the platform's native advisory-locking primitive
// (flock on Unix, LockFileEx on Windows; see filelock_unix.go and
// filelock_windows.go). If an existing lock file's mtime is older than
// Lifetime, it is assumed to belong to a crashed holder: it is removed
// and recreated before acquisition proceeds.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Lifetime is how old a lock file's mtime can get before it is treated as
// abandoned by a crashed peer and forcibly replaced.
const Lifetime = time.Hour

// Lock represents a held advisory lock. It must be released with Unlock.
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes an exclusive advisory lock on the file at path, creating
// parent directories as needed. If the file already exists and its mtime
// exceeds Lifetime, it is removed and recreated first.
//
// Acquire blocks until the lock is available. Callers that need
// cancellation should race Acquire in a goroutine against their own
// context; see internal/cache for the concrete usage.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir parent of lock %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) > Lifetime {
			// Stale lock: a previous holder almost certainly crashed
			// without releasing it. Best effort removal; if another
			// process wins the race to recreate it, the native lock
			// below still serializes correctly.
			_ = os.Remove(path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat lock %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Refresh mtime now that we hold the lock, so a long-held lock isn't
	// mistaken for stale by a concurrent Acquire that stats it mid-hold.
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	return &Lock{path: path, f: f}, nil
}

// ErrLocked is returned by TryAcquire when another holder currently owns
// the lock.
var ErrLocked = errors.New("filelock: already locked")

// TryAcquire is Acquire's non-blocking sibling: it returns ErrLocked
// immediately instead of waiting if the lock is currently held by
// another process. Used by internal/gameinfo's IsRunning check, which
// must not block on a live game's sentinel.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir parent of lock %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) > Lifetime {
			_ = os.Remove(path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat lock %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	if err := tryLockFile(f); err != nil {
		f.Close()
		if isWouldBlock(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)

	return &Lock{path: path, f: f}, nil
}

// With acquires the lock at path, runs fn, and releases the lock on
// every exit path, including panics.
func With(path string, fn func() error) error {
	lock, err := Acquire(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// Unlock releases the lock and closes the underlying file. The lock file
// itself is left on disk; callers that want to remove it entirely should
// os.Remove(path) after Unlock returns, being mindful that doing so races
// a concurrent Acquire that may have already recreated it.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	cerr := l.f.Close()
	if err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return cerr
}
