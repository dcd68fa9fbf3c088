// Package identity manages the Ed25519 keypairs used to sign timesheets.
// Keys live as base64-encoded files in the identity directory:
//
//	id_<name>      32-byte private seed (0600)
//	id_<name>.pub  32-byte public key
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Identity is a named signing keypair.
type Identity struct {
	Name string
	Key  ed25519.PrivateKey
}

// Public returns the identity's public key.
func (id Identity) Public() ed25519.PublicKey {
	return id.Key.Public().(ed25519.PublicKey)
}

// Store reads and writes identities under one directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) keyPath(name string) string {
	return filepath.Join(s.dir, "id_"+name)
}

func (s *Store) pubPath(name string) string {
	return filepath.Join(s.dir, "id_"+name+".pub")
}

// Create generates a new keypair for name. An existing identity is only
// replaced when overwrite is set.
func (s *Store) Create(name string, overwrite bool) (Identity, error) {
	if name == "" || strings.ContainsAny(name, "/.") {
		return Identity{}, fmt.Errorf("invalid identity name %q", name)
	}
	path := s.keyPath(name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return Identity{}, fmt.Errorf("identity %q already exists at %s", name, path)
		}
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return Identity{}, fmt.Errorf("creating identity directory: %w", err)
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return Identity{}, fmt.Errorf("generating key seed: %w", err)
	}
	key := ed25519.NewKeyFromSeed(seed)
	pub := key.Public().(ed25519.PublicKey)

	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(seed)), 0o600); err != nil {
		return Identity{}, fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(s.pubPath(name), []byte(base64.StdEncoding.EncodeToString(pub)), 0o600); err != nil {
		return Identity{}, fmt.Errorf("writing public key: %w", err)
	}

	return Identity{Name: name, Key: key}, nil
}

// Load reads the private key for name.
func (s *Store) Load(name string) (Identity, error) {
	data, err := os.ReadFile(s.keyPath(name))
	if os.IsNotExist(err) {
		return Identity{}, fmt.Errorf("identity %q does not exist", name)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("reading private key for %q: %w", name, err)
	}
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return Identity{}, fmt.Errorf("decoding private key for %q: %w", name, err)
	}
	if len(seed) != ed25519.SeedSize {
		return Identity{}, fmt.Errorf("private key for %q has wrong length: got %d bytes, want %d",
			name, len(seed), ed25519.SeedSize)
	}
	return Identity{Name: name, Key: ed25519.NewKeyFromSeed(seed)}, nil
}

// LoadPublic reads the public key for name. Verification needs only this;
// the private key file is never touched.
func (s *Store) LoadPublic(name string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(s.pubPath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no public key for identity %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading public key for %q: %w", name, err)
	}
	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding public key for %q: %w", name, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key for %q has wrong length: got %d bytes, want %d",
			name, len(pub), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(pub), nil
}

// List returns the names of all stored identities, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "id_") || strings.HasSuffix(name, ".pub") {
			continue
		}
		names = append(names, strings.TrimPrefix(name, "id_"))
	}
	sort.Strings(names)
	return names, nil
}
