package portalapi

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a session token.
// It is the only call that does not require a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if email == "" || password == "" {
		return nil, Preconditionf("email and password are required")
	}

	var result LoginResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/login", LoginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response did not include a token")
	}
	if _, err := ParseRole(string(result.Role)); err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}

	return &result, nil
}
