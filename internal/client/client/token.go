package client

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/facultyreview/internal/filex"
)

const tokenFile = "token"

// TokenStore persists the session token between CLI runs.
type TokenStore struct {
	path string
}

// NewTokenStore makes sure dir exists under the working directory.
func NewTokenStore(dir string) (*TokenStore, error) {
	abs, err := filex.EnsureSubDir(dir)
	if err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	return &TokenStore{path: filepath.Join(abs, tokenFile)}, nil
}

func (s *TokenStore) Path() string { return s.path }

// Load returns "" when no token was saved.
func (s *TokenStore) Load() (string, error) {
	data, err := filex.ReadOptional(s.path)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *TokenStore) Save(token string) error {
	if err := filex.WritePrivate(s.path, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear() error {
	return filex.RemoveOptional(s.path)
}
