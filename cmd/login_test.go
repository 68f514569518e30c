package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/chicoin/internal/sandbox"
	"github.com/jonandersen/chicoin/internal/session"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

func newTestLoginOptions(t *testing.T, baseURL string, reader passwordReader, stdin string) (*loginOptions, *session.Manager) {
	t.Helper()
	sessions := newTestSessions(t)
	return &loginOptions{
		baseURL:        baseURL,
		sessions:       sessions,
		passwordReader: reader,
		stdin:          strings.NewReader(stdin),
		logger:         zerolog.Nop(),
	}, sessions
}

func TestLoginCmd_ClientFromTerminal(t *testing.T) {
	server, _ := newTestSandbox(t)
	reader := newMockPasswordReader(sandbox.ClientPassword, true)
	opts, sessions := newTestLoginOptions(t, server.URL, reader, "")

	out, err := execute(newLoginCmd(opts), "--email", sandbox.ClientEmail)
	require.NoError(t, err)

	assert.True(t, reader.readCalled)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Logged in as:")
	assert.Contains(t, out, "Ana Souza")

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, portalapi.RoleClient, sess.Role)
	assert.Equal(t, "Ana Souza", sess.DisplayName)
	assert.NotEmpty(t, sess.Token)
}

func TestLoginCmd_AdvisorFromStdin(t *testing.T) {
	server, _ := newTestSandbox(t)
	reader := newMockPasswordReader("", false)
	opts, sessions := newTestLoginOptions(t, server.URL, reader, sandbox.AdvisorPassword+"\n")

	_, err := execute(newLoginCmd(opts), "-e", sandbox.AdvisorEmail)
	require.NoError(t, err)
	assert.False(t, reader.readCalled)

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.True(t, sess.IsAdvisor())
}

func TestLoginCmd_JSONOutput(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts, _ := newTestLoginOptions(t, server.URL, nil, sandbox.ClientPassword+"\n")
	opts.jsonMode = true

	out, err := execute(newLoginCmd(opts), "--email", sandbox.ClientEmail)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "client", got["role"])
}

func TestLoginCmd_Failures(t *testing.T) {
	server, _ := newTestSandbox(t)

	tests := []struct {
		name    string
		args    []string
		reader  passwordReader
		stdin   string
		wantErr string
	}{
		{
			name:    "missing email",
			args:    []string{},
			stdin:   "secret\n",
			wantErr: "email is required (use --email)",
		},
		{
			name:    "empty password",
			args:    []string{"--email", sandbox.ClientEmail},
			stdin:   "\n",
			wantErr: "password cannot be empty",
		},
		{
			name:    "wrong password",
			args:    []string{"--email", sandbox.ClientEmail},
			stdin:   "nope\n",
			wantErr: "login failed: invalid email or password",
		},
		{
			name:    "terminal read error",
			args:    []string{"--email", sandbox.ClientEmail},
			reader:  newMockPasswordReader("", true).WithError(errors.New("tty gone")),
			wantErr: "failed to read password: tty gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, sessions := newTestLoginOptions(t, server.URL, tt.reader, tt.stdin)

			_, err := execute(newLoginCmd(opts), tt.args...)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)

			_, loadErr := sessions.Load()
			assert.ErrorIs(t, loadErr, session.ErrNoSession)
		})
	}
}

func TestLoginCmd_UnreachablePortal(t *testing.T) {
	opts, _ := newTestLoginOptions(t, "http://127.0.0.1:1", nil, "secret\n")

	_, err := execute(newLoginCmd(opts), "--email", sandbox.ClientEmail)
	require.Error(t, err)
	assert.Equal(t, "login failed: Connection error: could not reach the portal.", err.Error())
}

func TestLogoutAndWhoami(t *testing.T) {
	jsonOutput = false
	sessions := newTestSessions(t)
	require.NoError(t, sessions.Save(session.Session{
		Token: "tok", Role: portalapi.RoleAdvisor, DisplayName: "Marina Costa",
	}))

	out, err := execute(newWhoamiCmd(sessions))
	require.NoError(t, err)
	assert.Contains(t, out, "Marina Costa")
	assert.Contains(t, out, "advisor")

	out, err = execute(newLogoutCmd(sessions))
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)

	_, err = execute(newWhoamiCmd(sessions))
	assert.ErrorIs(t, err, session.ErrNoSession)
}
