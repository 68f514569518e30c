package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/chicoin/internal/keyring"
	"github.com/jonandersen/chicoin/internal/sandbox"
	"github.com/jonandersen/chicoin/internal/session"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// mockPasswordReader is a test double for password input.
type mockPasswordReader struct {
	password   string
	err        error
	isTerminal bool
	readCalled bool
}

func newMockPasswordReader(password string, isTerminal bool) *mockPasswordReader {
	return &mockPasswordReader{
		password:   password,
		isTerminal: isTerminal,
	}
}

func (m *mockPasswordReader) WithError(err error) *mockPasswordReader {
	m.err = err
	return m
}

func (m *mockPasswordReader) ReadPassword() (string, error) {
	m.readCalled = true
	if m.err != nil {
		return "", m.err
	}
	return m.password, nil
}

func (m *mockPasswordReader) IsTerminal() bool {
	return m.isTerminal
}

func newTestSandbox(t *testing.T) (*httptest.Server, *sandbox.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := sandbox.NewSeededStore()
	server := httptest.NewServer(sandbox.NewRouter(store, zerolog.Nop()))
	t.Cleanup(server.Close)
	return server, store
}

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	return session.NewManager(keyring.NewMockStore(), filepath.Join(t.TempDir(), ".session"))
}

// loggedIn returns portal options holding a real sandbox session.
func loggedIn(t *testing.T, baseURL, email, password string) portalOptions {
	t.Helper()
	resp, err := portalapi.NewAnonymousClient(baseURL).Login(context.Background(), email, password)
	require.NoError(t, err)
	return portalOptions{
		baseURL: baseURL,
		session: session.FromLogin(resp),
		logger:  zerolog.Nop(),
	}
}

func asClient(t *testing.T, baseURL string) portalOptions {
	return loggedIn(t, baseURL, sandbox.ClientEmail, sandbox.ClientPassword)
}

func asAdvisor(t *testing.T, baseURL string) portalOptions {
	return loggedIn(t, baseURL, sandbox.AdvisorEmail, sandbox.AdvisorPassword)
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
