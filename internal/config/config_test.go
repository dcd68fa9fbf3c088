package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faffage/faff/internal/config"
)

func TestLoadFirstRunWritesTemplate(t *testing.T) {
	base := t.TempDir()

	cfg, err := config.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultIdentity != config.DefaultIdentityName {
		t.Errorf("DefaultIdentity = %q", cfg.DefaultIdentity)
	}

	data, err := os.ReadFile(config.Path(base))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("template is empty")
	}

	// The annotated template itself parses on the next load.
	again, err := config.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if again.DefaultIdentity != cfg.DefaultIdentity {
		t.Error("template round trip changed the config")
	}
}

func TestLoadParsesComments(t *testing.T) {
	base := t.TempDir()
	content := `// hand-written config
{
  // the zone logs live in
  "timezone": "Europe/London",
  "actor": {"name": "Ada", "email": "ada@example.com"},
  "default_identity": "work",
  "audiences": [
    {"id": "acme", "signing_ids": ["work"]},
    {"id": "globex", "signing_ids": [], "submit": {
      "url": "https://timesheets.globex.example/submit",
      "client_id": "cid",
      "device_auth_url": "https://auth.globex.example/devicecode",
      "token_url": "https://auth.globex.example/token"
    }}
  ]
}
`
	if err := os.WriteFile(filepath.Join(base, "config.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "Europe/London" || cfg.Actor["name"] != "Ada" || cfg.DefaultIdentity != "work" {
		t.Errorf("cfg = %+v", cfg)
	}

	acme, ok := cfg.Audience("acme")
	if !ok || len(acme.SigningIDs) != 1 || acme.Submit != nil {
		t.Errorf("acme = %+v, ok=%v", acme, ok)
	}
	globex, ok := cfg.Audience("globex")
	if !ok || globex.Submit == nil || globex.Submit.ClientID != "cid" {
		t.Errorf("globex = %+v, ok=%v", globex, ok)
	}
	if _, ok := cfg.Audience("ghost"); ok {
		t.Error("unknown audience found")
	}
}

func TestLocation(t *testing.T) {
	cfg := config.Config{Timezone: "Europe/London"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc.String() != "Europe/London" {
		t.Errorf("Location = %s", loc)
	}

	cfg.Timezone = ""
	loc, err = cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone: loc=%v err=%v, want time.Local", loc, err)
	}

	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Error("invalid timezone accepted")
	}
}
