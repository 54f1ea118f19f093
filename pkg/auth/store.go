package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	tokenFileName = "github_token"
	keyringUser   = "github_token"
	fileMode      = 0600
)

var ErrNoToken = errors.New("no GitHub token stored, run auth first")

// Store keeps the token in the OS keychain, falling back to a file in Dir
// when no keychain is available.
type Store struct {
	Service string
	Dir     string
}

func (s *Store) filePath() string {
	return filepath.Join(s.Dir, tokenFileName)
}

// Save stores token.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}

	if err := keyring.Set(s.Service, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return s.saveFile(token)
	}

	// legacy file from a previous fallback
	if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to remove token file", "path", s.filePath(), "error", err)
	}
	return nil
}

// Get returns the stored token, moving a file token into the keychain
// when one becomes available.
func (s *Store) Get() (string, error) {
	token, err := keyring.Get(s.Service, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = s.getFile()
	if err != nil {
		return "", err
	}

	if migrateErr := keyring.Set(s.Service, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(s.filePath())
	}
	return token, nil
}

// Delete removes the token from both locations.
func (s *Store) Delete() error {
	if err := keyring.Delete(s.Service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("failed to delete keychain token", "error", err)
	}
	if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func (s *Store) saveFile(token string) error {
	if err := os.WriteFile(s.filePath(), []byte(token), fileMode); err != nil {
		return fmt.Errorf("writing token file %s: %w", s.filePath(), err)
	}
	return nil
}

func (s *Store) getFile() (string, error) {
	b, err := os.ReadFile(s.filePath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.filePath(), err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
