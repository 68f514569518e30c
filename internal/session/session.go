// Package session persists the logged-in portal session.
//
// The token lives in the OS keyring; role and display name live in a small
// JSON file next to the config. A session is only ever replaced wholesale.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonandersen/chicoin/internal/config"
	"github.com/jonandersen/chicoin/internal/keyring"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// ErrNoSession is returned when no usable session is stored.
var ErrNoSession = errors.New("not logged in: run 'chicoin login' first")

// Session is the authenticated identity used for every portal request.
type Session struct {
	Token       string
	Role        portalapi.Role
	DisplayName string
}

// IsAdvisor reports whether the session belongs to an advisor.
func (s Session) IsAdvisor() bool {
	return s.Role == portalapi.RoleAdvisor
}

// sessionFile is the JSON structure of the session file. The token is
// deliberately absent.
type sessionFile struct {
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// Manager saves, loads and clears sessions.
type Manager struct {
	store keyring.Store
	path  string
}

// NewManager creates a Manager storing the token in store and the rest at path.
func NewManager(store keyring.Store, path string) *Manager {
	return &Manager{store: store, path: path}
}

// DefaultPath returns the session file location.
func DefaultPath() string {
	return filepath.Join(config.ConfigDir(), ".session")
}

// FromLogin builds a Session from a login response.
func FromLogin(resp *portalapi.LoginResponse) Session {
	return Session{
		Token:       resp.Token,
		Role:        resp.Role,
		DisplayName: resp.User.Name,
	}
}

// Save replaces any stored session with s.
// The parent directory is created with 0700 and the file written with 0600.
func (m *Manager) Save(s Session) error {
	if s.Token == "" {
		return fmt.Errorf("session token is empty")
	}
	if _, err := portalapi.ParseRole(string(s.Role)); err != nil {
		return err
	}

	if err := m.store.Set(keyring.ServiceName, keyring.KeySessionToken, s.Token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.Marshal(sessionFile{Role: string(s.Role), DisplayName: s.DisplayName})
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load returns the stored session, or ErrNoSession when either half is missing.
func (m *Manager) Load() (Session, error) {
	token, err := m.store.Get(keyring.ServiceName, keyring.KeySessionToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to read session token: %w", err)
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Session{}, ErrNoSession
	}
	role, err := portalapi.ParseRole(f.Role)
	if err != nil {
		return Session{}, ErrNoSession
	}

	return Session{Token: token, Role: role, DisplayName: f.DisplayName}, nil
}

// Clear removes both halves of the session. Clearing a missing session is
// not an error.
func (m *Manager) Clear() error {
	if err := m.store.Delete(keyring.ServiceName, keyring.KeySessionToken); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
