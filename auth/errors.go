package auth

import (
	"fmt"
	"os"
)

// AuthError is returned when both request rounds end without success.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed with status %d: %s", e.Status, e.Body)
}

// PermissionsTooPermissiveError is returned when the credential file can be
// accessed by anyone but its owner.
type PermissionsTooPermissiveError struct {
	Path string
	Mode os.FileMode
}

func (e *PermissionsTooPermissiveError) Error() string {
	return fmt.Sprintf("File permissions too permissive to open %s (mode %#o), run `chmod 600 %s`", e.Path, e.Mode, e.Path)
}
