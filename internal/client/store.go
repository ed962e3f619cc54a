package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenMaxAge matches the server's token lifetime.
const TokenMaxAge = 7 * 24 * time.Hour

// StoredToken is the persisted form of a session token.
type StoredToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenStore persists the session token between runs.
// Load returns ("", nil) when no usable token is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a JSON file with a fixed expiry.
type FileTokenStore struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path, maxAge: TokenMaxAge, now: time.Now}
}

// DefaultTokenPath returns <user config dir>/movietrack/session.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "movietrack", "session.json"), nil
}

func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	var stored StoredToken
	if err := json.Unmarshal(data, &stored); err != nil || stored.Token == "" {
		// Unreadable contents are as good as no session
		_ = s.Clear()
		return "", nil
	}

	if !s.now().Before(stored.ExpiresAt) {
		_ = s.Clear()
		return "", nil
	}
	return stored.Token, nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.Marshal(StoredToken{Token: token, ExpiresAt: s.now().Add(s.maxAge)})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
