package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Credentials is what login saves for later commands.
type Credentials struct {
	Server    string     `toml:"server"`
	Token     string     `toml:"token"`
	Email     string     `toml:"email"`
	UserID    string     `toml:"user_id"`
	ExpiresAt *time.Time `toml:"expires_at,omitempty"`
}

// CredentialStore keeps Credentials in a TOML file readable only by the
// owner.
type CredentialStore struct {
	path string
}

// NewCredentialStore opens the store at path. An empty path means
// <user config dir>/linguashift/credentials.toml.
func NewCredentialStore(path string) (*CredentialStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "linguashift", "credentials.toml")
	}
	return &CredentialStore{path: path}, nil
}

func (s *CredentialStore) Path() string { return s.path }

// Load returns nil, nil when nothing has been saved yet.
func (s *CredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var c Credentials
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return &c, nil
}

func (s *CredentialStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear removes the saved credentials. Missing files are not an error.
func (s *CredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
