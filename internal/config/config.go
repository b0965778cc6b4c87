// Package config loads factorix's process-wide configuration: the portal
// API key and the tunables for the HTTP stack and cache store. It is
// read once per invocation, by cmd/factorix's bootstrap, and the resulting Config
// is passed down as an immutable value from there; tests construct a
// Config literal directly instead of going through Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nesv/factorix/internal/ferr"
	"github.com/nesv/factorix/internal/platform"
)

// Retry holds the retry layer's backoff tunables.
type Retry struct {
	Base        time.Duration `yaml:"base"`
	Cap         time.Duration `yaml:"cap"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Timeouts holds the transport layer's per-phase timeouts.
type Timeouts struct {
	Connect time.Duration `yaml:"connect"`
	Read    time.Duration `yaml:"read"`
	Write   time.Duration `yaml:"write"`
}

// CacheTTL holds the three named caches' TTLs. Zero means unlimited.
type CacheTTL struct {
	Download time.Duration `yaml:"download"`
	API      time.Duration `yaml:"api"`
	InfoJSON time.Duration `yaml:"info_json"`
}

// Config is factorix's fully resolved, process-wide configuration.
type Config struct {
	// APIKey is the Factorio Mod Portal bearer token, required only for
	// portal write operations (publish, edit, add-image).
	APIKey string `yaml:"-"`

	PortalBaseURL string   `yaml:"portal_base_url"`
	Retry         Retry    `yaml:"retry"`
	Timeouts      Timeouts `yaml:"timeouts"`
	CacheTTL      CacheTTL `yaml:"cache_ttl"`

	// Jobs caps how many mods may be downloaded concurrently during
	// install/update. 0 means "use the default" (see Default()).
	Jobs int `yaml:"jobs"`

	// MaskedQueryParams is the set of URL query parameter names masked
	// in log output.
	MaskedQueryParams []string `yaml:"-"`
}

// Default returns factorix's built-in defaults, before any config file
// or environment override is applied.
func Default() Config {
	return Config{
		PortalBaseURL: "https://mods.factorio.com",
		Retry: Retry{
			Base:        time.Second,
			Cap:         30 * time.Second,
			MaxAttempts: 5,
		},
		Timeouts: Timeouts{
			Connect: 5 * time.Second,
			Read:    30 * time.Second,
			Write:   30 * time.Second,
		},
		CacheTTL: CacheTTL{
			Download: 0,
			API:      time.Hour,
			InfoJSON: 0,
		},
		Jobs:              8,
		MaskedQueryParams: []string{"username", "token"},
	}
}

// fileConfig mirrors the subset of Config that can be overridden by the
// YAML config file, keeping the decode target separate from Config
// itself since APIKey and MaskedQueryParams are never read from the
// file.
type fileConfig struct {
	PortalBaseURL string    `yaml:"portal_base_url"`
	Retry         *Retry    `yaml:"retry"`
	Timeouts      *Timeouts `yaml:"timeouts"`
	CacheTTL      *CacheTTL `yaml:"cache_ttl"`
	Jobs          *int      `yaml:"jobs"`
}

// Load resolves Config from, in increasing precedence: built-in
// defaults, the YAML config file (if present), and the environment
// (FACTORIO_API_KEY).
func Load() (Config, error) {
	cfg := Default()

	path, err := configFilePath()
	if err == nil {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.APIKey = os.Getenv("FACTORIO_API_KEY")

	return cfg, nil
}

// configFilePath returns the path factorix looks for its config file at:
// <platform config dir>/factorix/config.yaml.
func configFilePath() (string, error) {
	paths, err := platform.Detect().Paths()
	if err != nil {
		return "", ferr.Wrap(ferr.KindConfiguration, "resolve config directory", err)
	}
	return filepath.Join(paths.Config, "factorix", "config.yaml"), nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ferr.Wrap(ferr.KindConfiguration, fmt.Sprintf("read config file %s", path), err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ferr.Wrap(ferr.KindConfiguration, fmt.Sprintf("parse config file %s", path), err)
	}

	if fc.PortalBaseURL != "" {
		cfg.PortalBaseURL = fc.PortalBaseURL
	}
	if fc.Retry != nil {
		cfg.Retry = *fc.Retry
	}
	if fc.Timeouts != nil {
		cfg.Timeouts = *fc.Timeouts
	}
	if fc.CacheTTL != nil {
		cfg.CacheTTL = *fc.CacheTTL
	}
	if fc.Jobs != nil {
		cfg.Jobs = *fc.Jobs
	}

	return nil
}
