package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/chicoin/internal/keyring"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

func newTestManager(t *testing.T) (*Manager, *keyring.MockStore, string) {
	t.Helper()
	store := keyring.NewMockStore()
	path := filepath.Join(t.TempDir(), "nested", ".session")
	return NewManager(store, path), store, path
}

func TestManager_SaveAndLoad(t *testing.T) {
	m, store, path := newTestManager(t)

	s := Session{Token: "tok-1", Role: portalapi.RoleClient, DisplayName: "Ana"}
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
	assert.False(t, loaded.IsAdvisor())

	token, err := store.Get(keyring.ServiceName, keyring.KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tok-1", "the token never touches the session file")
}

func TestManager_SaveReplacesWholesale(t *testing.T) {
	m, _, _ := newTestManager(t)

	require.NoError(t, m.Save(Session{Token: "a", Role: portalapi.RoleClient, DisplayName: "Ana"}))
	require.NoError(t, m.Save(Session{Token: "b", Role: portalapi.RoleAdvisor, DisplayName: "Bia"}))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "b", Role: portalapi.RoleAdvisor, DisplayName: "Bia"}, loaded)
}

func TestManager_SaveRejectsInvalid(t *testing.T) {
	m, _, _ := newTestManager(t)

	assert.Error(t, m.Save(Session{Role: portalapi.RoleClient}))
	assert.Error(t, m.Save(Session{Token: "x", Role: "admin"}))
}

func TestManager_LoadMissing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Manager, store *keyring.MockStore, path string)
	}{
		{"nothing stored", func(*Manager, *keyring.MockStore, string) {}},
		{"token only", func(_ *Manager, store *keyring.MockStore, _ string) {
			store.WithSessionToken("tok")
		}},
		{"file only", func(_ *Manager, _ *keyring.MockStore, path string) {
			_ = os.MkdirAll(filepath.Dir(path), 0700)
			_ = os.WriteFile(path, []byte(`{"role":"client","display_name":"Ana"}`), 0600)
		}},
		{"corrupt file", func(_ *Manager, store *keyring.MockStore, path string) {
			store.WithSessionToken("tok")
			_ = os.MkdirAll(filepath.Dir(path), 0700)
			_ = os.WriteFile(path, []byte(`not json`), 0600)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store, path := newTestManager(t)
			tt.setup(m, store, path)

			_, err := m.Load()
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestManager_LoadKeyringError(t *testing.T) {
	m, store, _ := newTestManager(t)
	store.WithGetError(errors.New("keyring locked"))

	_, err := m.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestManager_Clear(t *testing.T) {
	m, store, path := newTestManager(t)
	require.NoError(t, m.Save(Session{Token: "tok", Role: portalapi.RoleClient, DisplayName: "Ana"}))

	require.NoError(t, m.Clear())

	assert.Equal(t, 0, store.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = m.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, m.Clear(), "clearing twice is fine")
}

func TestFromLogin(t *testing.T) {
	s := FromLogin(&portalapi.LoginResponse{
		Token: "tok",
		Role:  portalapi.RoleAdvisor,
		User:  portalapi.User{ID: 1, Name: "Bia"},
	})
	assert.Equal(t, Session{Token: "tok", Role: portalapi.RoleAdvisor, DisplayName: "Bia"}, s)
	assert.True(t, s.IsAdvisor())
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/chicoin/.session", DefaultPath())
}
