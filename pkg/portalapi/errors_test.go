package portalapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 400, Message: "Invalid request"},
			expected: "API error (400): Invalid request",
		},
		{
			name:     "without message uses status text",
			err:      &APIError{StatusCode: 404},
			expected: "API error (404): Not Found",
		},
		{
			name:     "with details",
			err:      &APIError{StatusCode: 409, Message: "Duplicate", Details: "email already registered"},
			expected: "API error (409): Duplicate (email already registered)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAPIError_StatusChecks(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		isNotFound     bool
		isUnauthorized bool
		isForbidden    bool
		isConflict     bool
	}{
		{"404", 404, true, false, false, false},
		{"401", 401, false, true, false, false},
		{"403", 403, false, false, true, false},
		{"409", 409, false, false, false, true},
		{"500", 500, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: tt.statusCode}
			assert.Equal(t, tt.isNotFound, err.IsNotFound())
			assert.Equal(t, tt.isUnauthorized, err.IsUnauthorized())
			assert.Equal(t, tt.isForbidden, err.IsForbidden())
			assert.Equal(t, tt.isConflict, err.IsConflict())
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"precondition", Preconditionf("quantity must be positive"), KindPrecondition},
		{"401", &APIError{StatusCode: 401}, KindAuthorization},
		{"403", &APIError{StatusCode: 403, Message: "Access denied"}, KindValidation},
		{"400", &APIError{StatusCode: 400, Message: "Saldo insuficiente"}, KindValidation},
		{"404", &APIError{StatusCode: 404}, KindValidation},
		{"500", &APIError{StatusCode: 500}, KindTransport},
		{"transport", &TransportError{Op: "GET /x", Err: io.EOF}, KindTransport},
		{"wrapped", fmt.Errorf("failed to load: %w", &APIError{StatusCode: 401}), KindAuthorization},
		{"plain", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Insufficient balance", UserMessage(&APIError{StatusCode: 400, Message: "Insufficient balance"}))
	assert.Equal(t, "Session expired. Log in again.", UserMessage(&APIError{StatusCode: 401}))
	assert.Equal(t, "Product not suitable for your investor profile.",
		UserMessage(&APIError{StatusCode: 403, Message: "Product not suitable for your investor profile."}))
	assert.Equal(t, "Connection error: could not reach the portal.", UserMessage(&TransportError{Op: "GET /", Err: io.EOF}))
	assert.Equal(t, "Server error: Internal Server Error", UserMessage(&APIError{StatusCode: 500}))
	assert.Equal(t, "quantity must be positive", UserMessage(Preconditionf("quantity must be positive")))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "authorization", KindAuthorization.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "precondition", KindPrecondition.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantErr     bool
		wantMessage string
		wantDetails string
	}{
		{
			name:       "200 OK",
			statusCode: 200,
			wantErr:    false,
		},
		{
			name:       "201 Created",
			statusCode: 201,
			wantErr:    false,
		},
		{
			name:        "error field",
			statusCode:  400,
			body:        `{"error": "Insufficient balance"}`,
			wantErr:     true,
			wantMessage: "Insufficient balance",
		},
		{
			name:        "message field with details",
			statusCode:  409,
			body:        `{"message": "Duplicate client", "details": "email"}`,
			wantErr:     true,
			wantMessage: "Duplicate client",
			wantDetails: "email",
		},
		{
			name:       "non-JSON body",
			statusCode: 502,
			body:       `<html>bad gateway</html>`,
			wantErr:    true,
		},
		{
			name:       "empty body",
			statusCode: 404,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}

			err := CheckResponse(resp)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantDetails, apiErr.Details)
		})
	}
}
