// Package config loads the faff workspace configuration from
// <base>/config.json. The file supports // comments so the annotated
// template written on first run stays readable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"
)

// Config is the root configuration for a faff workspace.
type Config struct {
	// Timezone is the IANA timezone logs are kept in (e.g. "Europe/London").
	// Empty means the system local timezone.
	Timezone string `json:"timezone"`
	// Actor identifies the person whose work is tracked. The attributes are
	// embedded verbatim in every compiled timesheet.
	Actor map[string]string `json:"actor"`
	// DefaultIdentity is the signing identity used when none is named.
	DefaultIdentity string `json:"default_identity"`
	// Audiences are the parties timesheets are compiled for.
	Audiences []Audience `json:"audiences"`
}

// Audience is one recipient of compiled timesheets.
type Audience struct {
	// ID names the audience; it appears in timesheet filenames and meta.
	ID string `json:"id"`
	// SigningIDs are the identities whose signatures the audience expects.
	SigningIDs []string `json:"signing_ids"`
	// Submit configures network submission. Nil means file-only.
	Submit *SubmitEndpoint `json:"submit,omitempty"`
}

// SubmitEndpoint describes where and how signed timesheets are posted.
// Authentication uses the OAuth2 device authorization flow.
type SubmitEndpoint struct {
	URL           string   `json:"url"`
	ClientID      string   `json:"client_id"`
	DeviceAuthURL string   `json:"device_auth_url"`
	TokenURL      string   `json:"token_url"`
	Scopes        []string `json:"scopes,omitempty"`
}

// DefaultIdentityName is used when the config names no signing identity.
const DefaultIdentityName = "default"

// defaultConfig returns a Config pre-filled with usable defaults.
func defaultConfig() Config {
	return Config{
		Actor:           map[string]string{"name": ""},
		DefaultIdentity: DefaultIdentityName,
	}
}

// configTemplate is the annotated config written on first run. Lines
// starting with // are comments and are stripped before JSON parsing.
const configTemplate = `// faff configuration
//
// All settings are optional; the defaults shown below work out of the box.
// Edit this file to describe yourself and your audiences.
{
  // IANA timezone your logs are kept in, e.g. "Europe/London".
  // Leave empty to use the system local timezone.
  "timezone": "",

  // Attributes identifying you. Embedded verbatim in every compiled
  // timesheet, so put whatever your audiences need to know who did the
  // work: name, email, employee id.
  "actor": {
    "name": ""
  },

  // Signing identity used when none is named on the command line.
  // Create it with: faff identity new default
  "default_identity": "default",

  // Parties you compile timesheets for. Each needs an id; signing_ids
  // lists the identities whose signatures the audience expects. Add a
  // "submit" block to post signed timesheets over HTTP:
  //
  //   "submit": {
  //     "url": "https://timesheets.example.com/api/submit",
  //     "client_id": "...",
  //     "device_auth_url": "https://auth.example.com/oauth2/devicecode",
  //     "token_url": "https://auth.example.com/oauth2/token"
  //   }
  "audiences": []
}
`

// Path returns the config file path inside base.
func Path(base string) string {
	return filepath.Join(base, "config.json")
}

// Load reads the config from base, creating it with annotated defaults on
// first run.
func Load(base string) (Config, error) {
	path := Path(base)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields so callers always get a usable Config even if
	// the user only partially fills in the file.
	if cfg.Actor == nil {
		cfg.Actor = map[string]string{}
	}
	if cfg.DefaultIdentity == "" {
		cfg.DefaultIdentity = DefaultIdentityName
	}

	return cfg, nil
}

// Location resolves the configured timezone, defaulting to the system
// local timezone when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q in config: %w", c.Timezone, err)
	}
	return loc, nil
}

// Audience looks up an audience by id.
func (c Config) Audience(id string) (Audience, bool) {
	for _, a := range c.Audiences {
		if a.ID == id {
			return a, true
		}
	}
	return Audience{}, false
}

// writeDefault creates the config directory and writes the annotated
// default config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
