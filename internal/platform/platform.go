// Package platform encapsulates per-OS path discovery behind one
// interface, with four concrete implementations — Linux, macOS,
// Windows, and WSL — selected once at startup and memoized.
//
// This package only resolves paths; it intentionally knows nothing about
// whether a Factorio process is currently running (that lives in
// internal/gameinfo).
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Paths is the set of base directories a Platform resolves. Callers join
// an application-specific subdirectory ("factorix") onto these
// themselves.
type Paths struct {
	Cache  string // user-specific non-essential (regenerable) data
	Config string // user-specific configuration
	Data   string // user-specific persistent application data
	State  string // user-specific state that should persist across restarts but isn't config
}

// Platform resolves the base directories for one operating system.
type Platform interface {
	// Name identifies the platform, e.g. "linux", "darwin", "windows", "wsl".
	Name() string
	// Paths returns the resolved base directories. The result is safe to
	// cache: it must not change for the lifetime of the process.
	Paths() (Paths, error)
}

var (
	detectOnce sync.Once
	detected   Platform
)

// Detect returns the Platform for the host the process is running on,
// memoized after the first call. WSL is distinguished from plain Linux by
// inspecting /proc/version for the "microsoft" marker that both WSL1 and
// WSL2 kernels carry.
func Detect() Platform {
	detectOnce.Do(func() {
		switch runtime.GOOS {
		case "windows":
			detected = windowsPlatform{}
		case "darwin":
			detected = darwinPlatform{}
		case "linux":
			if isWSL() {
				detected = newWSLPlatform()
			} else {
				detected = linuxPlatform{}
			}
		default:
			detected = linuxPlatform{}
		}
	})
	return detected
}

// isWSL reports whether the process is running under the Windows
// Subsystem for Linux.
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	s := string(data)
	return containsFold(s, "microsoft") || containsFold(s, "wsl")
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

// indexFold is a tiny case-insensitive substring search, avoiding a
// strings.ToLower allocation of the whole (potentially large) file for a
// one-shot startup check.
func indexFold(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		match := true
		for j := 0; j < m; j++ {
			a, b := s[i+j], substr[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// linuxPlatform implements the XDG Base Directory Specification,
// https://specifications.freedesktop.org/basedir-spec/basedir-spec-latest.html.
type linuxPlatform struct{}

func (linuxPlatform) Name() string { return "linux" }

func (linuxPlatform) Paths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil && !envHasAllXDG() {
		return Paths{}, errors.New("platform: neither XDG_* vars nor $HOME are defined")
	}
	return Paths{
		Cache:  xdgOr(home, "XDG_CACHE_HOME", ".cache"),
		Config: xdgOr(home, "XDG_CONFIG_HOME", ".config"),
		Data:   xdgOr(home, "XDG_DATA_HOME", filepath.Join(".local", "share")),
		State:  xdgOr(home, "XDG_STATE_HOME", filepath.Join(".local", "state")),
	}, nil
}

func envHasAllXDG() bool {
	for _, v := range []string{"XDG_CACHE_HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_STATE_HOME"} {
		if os.Getenv(v) == "" {
			return false
		}
	}
	return true
}

func xdgOr(home, envVar, fallbackRel string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return filepath.Join(home, fallbackRel)
}

// darwinPlatform uses macOS's conventional ~/Library directories, falling
// back to the same XDG variables linuxPlatform honors when they are set
// explicitly (some users run XDG-aware tooling on macOS too).
type darwinPlatform struct{}

func (darwinPlatform) Name() string { return "darwin" }

func (darwinPlatform) Paths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		Cache:  envOr("XDG_CACHE_HOME", filepath.Join(home, "Library", "Caches")),
		Config: envOr("XDG_CONFIG_HOME", filepath.Join(home, "Library", "Application Support")),
		Data:   envOr("XDG_DATA_HOME", filepath.Join(home, "Library", "Application Support")),
		State:  envOr("XDG_STATE_HOME", filepath.Join(home, "Library", "Application Support")),
	}, nil
}

func envOr(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

// windowsPlatform uses %LOCALAPPDATA% (cache/data/state) and %APPDATA%
// (config), the conventional split used by most Windows-native tools.
type windowsPlatform struct{}

func (windowsPlatform) Name() string { return "windows" }

func (windowsPlatform) Paths() (Paths, error) {
	localAppData := os.Getenv("LOCALAPPDATA")
	appData := os.Getenv("APPDATA")
	if localAppData == "" || appData == "" {
		return Paths{}, errors.New("platform: LOCALAPPDATA or APPDATA is not set")
	}
	return Paths{
		Cache:  filepath.Join(localAppData, "cache"),
		Config: appData,
		Data:   localAppData,
		State:  localAppData,
	}, nil
}

// wslPlatform behaves like linuxPlatform for its own paths, but also
// offers WindowsPath, bridging a Windows drive-lettered path (as reported
// by, e.g., a Windows-side Factorio install) into the WSL mount
// namespace. This invokes a helper (wslpath) and memoizes the result
// since the mount prefix does not change during a process's lifetime.
type wslPlatform struct {
	linuxPlatform
	bridge *wslBridge
}

func newWSLPlatform() *wslPlatform {
	return &wslPlatform{bridge: &wslBridge{}}
}

func (p *wslPlatform) Name() string { return "wsl" }

// WindowsPath translates a drive-lettered Windows path (e.g.
// `C:\Users\alice\AppData\Roaming`) into its WSL-mounted equivalent (e.g.
// `/mnt/c/Users/alice/AppData/Roaming`), via the `wslpath` helper that
// ships with WSL.
func (p *wslPlatform) WindowsPath(winPath string) (string, error) {
	return p.bridge.translate(winPath)
}
