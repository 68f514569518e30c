package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonandersen/chicoin/pkg/portalapi"
)

func TestRootCmd_JSONFlagExists(t *testing.T) {
	// Reset the flag for testing
	jsonOutput = false

	cmd := rootCmd
	flag := cmd.PersistentFlags().Lookup("json")

	assert.NotNil(t, flag, "--json flag should exist")
	assert.Equal(t, "false", flag.DefValue)
	assert.Equal(t, "Output in JSON format", flag.Usage)
}

func TestRootCmd_JSONFlagShorthand(t *testing.T) {
	cmd := rootCmd
	flag := cmd.PersistentFlags().ShorthandLookup("j")

	assert.NotNil(t, flag, "-j shorthand should exist")
	assert.Equal(t, "json", flag.Name)
}

func TestRootCmd_GetJSONMode(t *testing.T) {
	// Test default value
	jsonOutput = false
	assert.False(t, GetJSONMode())

	// Test when set
	jsonOutput = true
	assert.True(t, GetJSONMode())

	// Reset
	jsonOutput = false
}

func TestRootCmd_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	_ = cmd.Execute()

	output := out.String()
	assert.Contains(t, output, "chicoin version")
}

func TestCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "authorization adds login hint",
			err:  &portalapi.APIError{StatusCode: 401, Message: "invalid token"},
			want: "order failed: Session expired. Log in again. Run 'chicoin login'.",
		},
		{
			name: "validation keeps server text",
			err:  &portalapi.APIError{StatusCode: 400, Message: "Insufficient balance"},
			want: "order failed: Insufficient balance",
		},
		{
			name: "wrapped authorization is still detected",
			err:  fmt.Errorf("loading: %w", &portalapi.APIError{StatusCode: 401, Message: "token expired"}),
			want: "order failed: Session expired. Log in again. Run 'chicoin login'.",
		},
		{
			name: "forbidden keeps server text without login hint",
			err:  &portalapi.APIError{StatusCode: 403, Message: "Portfolio does not belong to this client."},
			want: "order failed: Portfolio does not belong to this client.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, commandError("order failed", tt.err), tt.want)
		})
	}
}

func TestPortalOptions_RequireRole(t *testing.T) {
	opts := portalOptions{}
	opts.session.Role = portalapi.RoleAdvisor

	assert.NoError(t, opts.requireRole(portalapi.RoleAdvisor))
	err := opts.requireRole(portalapi.RoleClient)
	assert.EqualError(t, err, "this command is only available to clients (logged in as advisor)")
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "whoami", "configure", "portfolio", "simulate", "buy", "products", "clients", "account", "profile", "ui", "sandbox"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
