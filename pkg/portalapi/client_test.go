package portalapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://portal.example.com", "test-token")

	assert.NotNil(t, client)
	assert.Equal(t, "http://portal.example.com", client.BaseURL)
	assert.NotNil(t, client.HTTPClient)
	assert.Equal(t, DefaultTimeout, client.HTTPClient.Timeout)
	assert.Equal(t, "test-token", client.Token())
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://portal.example.com/", "test-token")

	assert.Equal(t, "http://portal.example.com", client.BaseURL)
}

func TestClient_WithTimeout(t *testing.T) {
	client := NewClient("http://portal.example.com", "t").WithTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)

	client.WithTimeout(0)
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout, "zero keeps the previous timeout")
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test-path", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	resp, err := client.Get(context.Background(), "/test-path")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"status":"ok"}`, string(body))
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"key":"value"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	resp, err := client.Post(context.Background(), "/test", strings.NewReader(`{"key":"value"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_AnonymousSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAnonymousClient(server.URL)

	resp, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestClient_NoRetryOn401(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	_, err := client.GetPortfolio(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "test-token")

	_, err := client.GetPortfolio(context.Background())
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "GET /portal/portfolio", transportErr.Op)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestClient_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"portfolioId": 1, "positions": [`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")

	portfolio, err := client.GetPortfolio(context.Background())
	require.Error(t, err)
	assert.Nil(t, portfolio, "a truncated body never yields a partial value")
	assert.Contains(t, err.Error(), "failed to decode response")
}
