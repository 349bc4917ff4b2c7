// Package identity reads the locally stored session identity written
// by the login flow. It is read-only: nothing in this module ever
// creates or refreshes a session.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoIdentity means no usable stored identity was found. Callers
// treat this as "log in first", not as a transport problem.
var ErrNoIdentity = errors.New("no stored identity")

// Identity is the local participant. Immutable for the session.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Present reports whether the identity carries a usable user id.
func (id Identity) Present() bool {
	return id.UserID != 0
}

// DefaultPath is where the login flow stores the session file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".codeduel", "session.json")
	}
	return filepath.Join(home, ".codeduel", "session.json")
}

// Load reads the session file at path, or the default location when
// path is empty. A missing, unreadable or incomplete file yields
// ErrNoIdentity.
func Load(path string) (Identity, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Identity{}, ErrNoIdentity
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read session file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse session file: %w", err)
	}
	if id.UserID == 0 || id.Username == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
