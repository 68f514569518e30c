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

func TestClient_ListClients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/clients", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"clientId":1,"name":"Ana","email":"ana@example.com","document":"111","complianceStatus":"approved"},
			{"clientId":2,"name":"Bruno","email":"bruno@example.com","document":"222","complianceStatus":"pending"}
		]`))
	}))
	defer server.Close()

	clients, err := NewClient(server.URL, "t").ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Bruno", clients[1].Name)
	assert.Equal(t, CompliancePending, clients[1].ComplianceStatus)
}

func TestClient_ListClients_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"advisors only"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "t").ListClients(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "advisors only", UserMessage(err))
}

func TestClient_CreateClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clients", r.URL.Path)

		var nc ClientDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&nc))
		assert.Equal(t, "Carla", nc.Name)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"clientId":3,"name":"Carla","email":"carla@example.com","document":"333","complianceStatus":"pending"}`))
	}))
	defer server.Close()

	record, err := NewClient(server.URL, "t").CreateClient(context.Background(), ClientDraft{
		Name: "Carla", Email: "carla@example.com", Document: "333", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), record.ClientID)
}

func TestClient_CreateClient_Duplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"email already registered"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "t").CreateClient(context.Background(), ClientDraft{
		Name: "Ana", Email: "ana@example.com", Document: "111", Password: "pw",
	})
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "email already registered", UserMessage(err))
}

func TestClient_UpdateComplianceStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clients/2/compliance-status", r.URL.Path)

		var update ComplianceUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.Equal(t, ComplianceRejected, update.Status)
		assert.Equal(t, "missing documents", update.Justification)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NewClient(server.URL, "t").UpdateComplianceStatus(context.Background(), 2, ComplianceUpdate{
		Status:        ComplianceRejected,
		Justification: "missing documents",
	})
	require.NoError(t, err)
}

func TestClient_UpdateComplianceStatus_InvalidStatus(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "t")

	err := client.UpdateComplianceStatus(context.Background(), 2, ComplianceUpdate{Status: "maybe"})
	require.Error(t, err)
	assert.Equal(t, KindPrecondition, KindOf(err))

	err = client.UpdateComplianceStatus(context.Background(), 0, ComplianceUpdate{Status: ComplianceApproved})
	require.Error(t, err)
	assert.Equal(t, KindPrecondition, KindOf(err))
}
