package portalapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListClients retrieves the advisor's clients.
func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, error) {
	var clients []ClientRecord
	if err := c.getJSON(ctx, "/clients", &clients); err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []ClientRecord{}
	}
	return clients, nil
}

// CreateClient registers a new client. Duplicate e-mail or document numbers
// are rejected by the server with 409.
func (c *Client) CreateClient(ctx context.Context, nc ClientDraft) (*ClientRecord, error) {
	if nc.Name == "" || nc.Email == "" || nc.Document == "" || nc.Password == "" {
		return nil, Preconditionf("name, email, document and password are required")
	}

	var record ClientRecord
	if err := c.sendJSON(ctx, http.MethodPost, "/clients", nc, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateComplianceStatus sets a client's compliance status.
func (c *Client) UpdateComplianceStatus(ctx context.Context, clientID int64, update ComplianceUpdate) error {
	if clientID == 0 {
		return Preconditionf("clientID is required")
	}
	if _, err := ParseComplianceStatus(string(update.Status)); err != nil {
		return &PreconditionError{Reason: err.Error()}
	}

	path := fmt.Sprintf("/clients/%d/compliance-status", clientID)
	return c.sendJSON(ctx, http.MethodPut, path, update, nil)
}
