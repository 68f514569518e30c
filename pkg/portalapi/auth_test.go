package portalapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@example.com", req.Email)
		assert.Equal(t, "secret", req.Password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","role":"client","user":{"id":7,"name":"Ana","email":"ana@example.com"}}`))
	}))
	defer server.Close()

	client := NewAnonymousClient(server.URL)

	resp, err := client.Login(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, RoleClient, resp.Role)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.Equal(t, "Ana", resp.User.Name)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer server.Close()

	client := NewAnonymousClient(server.URL)

	resp, err := client.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestClient_Login_UnknownRole(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"tok","role":"admin","user":{"id":1,"name":"Root"}}`))
	}))
	defer server.Close()

	_, err := NewAnonymousClient(server.URL).Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestClient_Login_MissingCredentials(t *testing.T) {
	client := NewAnonymousClient("http://127.0.0.1:1")

	_, err := client.Login(context.Background(), "", "secret")
	require.Error(t, err)
	assert.Equal(t, KindPrecondition, KindOf(err))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("advisor")
	require.NoError(t, err)
	assert.Equal(t, RoleAdvisor, role)

	_, err = ParseRole("")
	assert.Error(t, err)
}
