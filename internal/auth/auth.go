// Package auth exposes the opaque bearer-token/username credential that
// the rest of factorix needs to download from, and publish to, the Mod
// Portal. Credential loading is treated as an external collaborator —
// this package only defines the narrow interface the core consumes and
// one concrete loader (the installation's player-data.json) plus an
// environment override, without getting into the business of full
// account management.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nesv/factorix/internal/ferr"
)

// Credentials is the opaque pair the Mod Portal download URL and the
// v2 publish/edit API need. Either field may be empty when the caller
// only needs the other (e.g. Bearer is enough for publish; Username+Token
// are enough for a download URL).
type Credentials struct {
	Username string
	Token    string
	Bearer   string
}

// playerData mirrors the fields factorix needs out of a Factorio
// installation's player-data.json. Most of that file's fields are
// opaque to factorix and are not modeled here.
type playerData struct {
	ServiceToken    string `json:"service-token"`
	ServiceUsername string `json:"service-username"`
}

// FromPlayerData loads the download-URL credential pair (Username,
// Token) out of a Factorio installation directory's player-data.json.
func FromPlayerData(installDir string) (Credentials, error) {
	name := filepath.Join(installDir, "player-data.json")
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ferr.Wrap(ferr.KindFileNotFound, "open player-data.json", err)
		}
		return Credentials{}, fmt.Errorf("open player-data.json: %w", err)
	}
	defer f.Close()

	var pd playerData
	if err := json.NewDecoder(f).Decode(&pd); err != nil {
		return Credentials{}, ferr.Wrap(ferr.KindFileFormat, "decode player-data.json", err)
	}

	return Credentials{Username: pd.ServiceUsername, Token: pd.ServiceToken}, nil
}

// FromEnv builds Credentials from FACTORIO_USERNAME/FACTORIO_TOKEN and
// FACTORIO_API_KEY (the portal's v2 Bearer token, also consulted by
// internal/config.Load).
func FromEnv() Credentials {
	return Credentials{
		Username: os.Getenv("FACTORIO_USERNAME"),
		Token:    os.Getenv("FACTORIO_TOKEN"),
		Bearer:   os.Getenv("FACTORIO_API_KEY"),
	}
}

// Merge fills any empty field of c from fallback, preferring c's own
// values. Useful to layer FromEnv() over FromPlayerData(), or a
// CLI-flag-supplied Credentials over both.
func (c Credentials) Merge(fallback Credentials) Credentials {
	if c.Username == "" {
		c.Username = fallback.Username
	}
	if c.Token == "" {
		c.Token = fallback.Token
	}
	if c.Bearer == "" {
		c.Bearer = fallback.Bearer
	}
	return c
}

// HasDownloadCreds reports whether c carries enough to build an
// authenticated download URL.
func (c Credentials) HasDownloadCreds() bool {
	return c.Username != "" && c.Token != ""
}
