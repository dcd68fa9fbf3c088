// Package submit posts signed timesheets to an audience's HTTP endpoint.
// Authentication uses the OAuth2 device authorization flow (RFC 8628);
// tokens are cached per audience under <base>/auth/.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/faffage/faff/internal/codec"
	"github.com/faffage/faff/internal/config"
	"github.com/faffage/faff/internal/model"
)

const contentTypeCBOR = "application/cbor"

// tokenFilePath returns the cached token path for an audience.
func tokenFilePath(base, audienceID string) string {
	return filepath.Join(base, "auth", audienceID+"_token.json")
}

func oauth2Config(ep *config.SubmitEndpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID: ep.ClientID,
		Scopes:   ep.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: ep.DeviceAuthURL,
			TokenURL:      ep.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token from disk.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token to disk.
func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// token returns a valid token for the endpoint: the cached one when still
// valid, a refreshed one when possible, otherwise a fresh device code
// flow with the verification prompt printed to stdout.
func token(ctx context.Context, base, audienceID string, ep *config.SubmitEndpoint) (*oauth2.Token, error) {
	cfg := oauth2Config(ep)
	path := tokenFilePath(base, audienceID)

	tok, err := loadToken(path)
	if err != nil {
		// Corrupt token — warn and re-auth.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, nil
	}

	// Try to refresh.
	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err2 := saveToken(path, refreshed); err2 != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save refreshed token: %v\n", err2)
			}
			return refreshed, nil
		}
		fmt.Fprintf(os.Stderr, "Token refresh failed (%v), re-authenticating...\n", err)
	}

	// Device code flow.
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Println()
	fmt.Println("To sign in, use a web browser to open the page:")
	fmt.Printf("  %s\n", resp.VerificationURI)
	fmt.Printf("Enter the code: %s\n", resp.UserCode)
	fmt.Println()

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}

	if err := saveToken(path, newTok); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save token: %v\n", err)
	}

	return newTok, nil
}

// Submit posts the timesheet record as CBOR to the audience's endpoint.
// The posted bytes carry signatures and meta alongside the payload, so
// the audience can verify the signatures against the embedded content.
func Submit(ctx context.Context, base string, audience config.Audience, ts model.Timesheet) error {
	if audience.Submit == nil {
		return fmt.Errorf("audience %q has no submit endpoint configured", audience.ID)
	}

	body, err := codec.Marshal(ts.Record())
	if err != nil {
		return fmt.Errorf("encoding timesheet: %w", err)
	}

	client := http.DefaultClient
	if audience.Submit.ClientID != "" {
		tok, err := token(ctx, base, audience.ID, audience.Submit)
		if err != nil {
			return err
		}
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, audience.Submit.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeCBOR)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submitting timesheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("submission rejected: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}
