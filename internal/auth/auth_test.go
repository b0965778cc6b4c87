package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/factorix/internal/ferr"
)

func TestFromPlayerDataReadsServiceCreds(t *testing.T) {
	dir := t.TempDir()
	data := `{"service-username":"player1","service-token":"tok123","other-field":"ignored"}`
	if err := os.WriteFile(filepath.Join(dir, "player-data.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	creds, err := FromPlayerData(dir)
	if err != nil {
		t.Fatal(err)
	}
	if creds.Username != "player1" || creds.Token != "tok123" {
		t.Errorf("got %+v", creds)
	}
}

func TestFromPlayerDataMissingFile(t *testing.T) {
	_, err := FromPlayerData(t.TempDir())
	if ferr.KindOf(err) != ferr.KindFileNotFound {
		t.Errorf("got kind %v, want KindFileNotFound", ferr.KindOf(err))
	}
}

func TestFromPlayerDataMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "player-data.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := FromPlayerData(dir)
	if ferr.KindOf(err) != ferr.KindFileFormat {
		t.Errorf("got kind %v, want KindFileFormat", ferr.KindOf(err))
	}
}

func TestFromEnvReadsAllThreeVars(t *testing.T) {
	t.Setenv("FACTORIO_USERNAME", "player1")
	t.Setenv("FACTORIO_TOKEN", "tok123")
	t.Setenv("FACTORIO_API_KEY", "key456")

	creds := FromEnv()
	want := Credentials{Username: "player1", Token: "tok123", Bearer: "key456"}
	if creds != want {
		t.Errorf("got %+v, want %+v", creds, want)
	}
}

func TestMergePrefersReceiverOverFallback(t *testing.T) {
	c := Credentials{Username: "player1"}
	fallback := Credentials{Username: "fallback-user", Token: "fallback-tok", Bearer: "fallback-bearer"}

	merged := c.Merge(fallback)
	want := Credentials{Username: "player1", Token: "fallback-tok", Bearer: "fallback-bearer"}
	if merged != want {
		t.Errorf("got %+v, want %+v", merged, want)
	}
}

func TestHasDownloadCreds(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"both present", Credentials{Username: "u", Token: "t"}, true},
		{"missing token", Credentials{Username: "u"}, false},
		{"missing username", Credentials{Token: "t"}, false},
		{"empty", Credentials{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.HasDownloadCreds(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
