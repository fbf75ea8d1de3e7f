// Package auth persists the ClusterFuzz authorization header and wraps
// outbound requests with the verification-code challenge.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the credential file name inside the clusterfuzz directory.
const FileName = "auth_header"

// Store keeps the authorization header on disk, readable by the owner only.
type Store struct {
	path string
}

// NewStore creates a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored header with surrounding whitespace removed. ok is
// false when no file exists or it holds no header. A file readable or
// writable by group or others is refused.
func (s *Store) Load() (header string, ok bool, err error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to stat credential file: %w", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return "", false, &PermissionsTooPermissiveError{Path: s.path, Mode: info.Mode().Perm()}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential file: %w", err)
	}
	header = strings.TrimSpace(string(data))
	if header == "" {
		return "", false, nil
	}
	return header, true, nil
}

// Save writes header and forces the file mode to 0600.
func (s *Store) Save(header string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	// Tighten an existing file before the secret lands in it.
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Chmod(s.path, 0o600); err != nil {
			return fmt.Errorf("failed to restrict credential file: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(header), 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict credential file: %w", err)
	}
	return nil
}
