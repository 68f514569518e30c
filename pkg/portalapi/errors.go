package portalapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError represents an error response from the portal API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("API error (%d): %s (%s)", e.StatusCode, msg, e.Details)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// ServerText returns the message exactly as the server supplied it, falling
// back to the HTTP status text.
func (e *APIError) ServerText() string {
	switch {
	case e.Message != "" && e.Details != "":
		return e.Message + ": " + e.Details
	case e.Message != "":
		return e.Message
	case e.Details != "":
		return e.Details
	}
	return http.StatusText(e.StatusCode)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 Forbidden.
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsConflict returns true if the error is a 409 Conflict (duplicate unique field).
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PreconditionError is raised by callers before any request is sent, when
// local state makes the request pointless (missing identifier, empty input).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// Preconditionf builds a PreconditionError.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind classifies failures for presentation.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindAuthorization
	KindValidation
	KindPrecondition
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	}
	return "unknown"
}

// KindOf maps an error to its ErrorKind.
// Only 401 means the session is gone. A 403 is a business rejection (foreign
// portfolio, unsuitable product, wrong role) and its text is shown as is.
// Server errors (5xx) count as transport failures: they are transient and
// the prior state stays valid.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var pre *PreconditionError
	if errors.As(err, &pre) {
		return KindPrecondition
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsUnauthorized():
			return KindAuthorization
		case apiErr.StatusCode >= 500:
			return KindTransport
		case apiErr.StatusCode >= 400:
			return KindValidation
		}
		return KindUnknown
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}

	return KindUnknown
}

// UserMessage renders an error the way it should be shown to the user:
// validation text verbatim, authorization failures as a re-login hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	switch KindOf(err) {
	case KindAuthorization:
		return "Session expired. Log in again."
	case KindValidation:
		if errors.As(err, &apiErr) {
			return apiErr.ServerText()
		}
	case KindTransport:
		if errors.As(err, &apiErr) {
			return "Server error: " + apiErr.ServerText()
		}
		return "Connection error: could not reach the portal."
	}
	return err.Error()
}

// errorResponse represents the JSON structure of API error responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// CheckResponse checks the API response for errors.
// If the response status code indicates an error (>= 400), it parses
// the error body and returns an APIError. Otherwise, returns nil.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// Body is not JSON, ignore parsing error
		return apiErr
	}

	// Use "error" field if present, otherwise "message" field
	if errResp.Error != "" {
		apiErr.Message = errResp.Error
	} else if errResp.Message != "" {
		apiErr.Message = errResp.Message
	}
	apiErr.Details = errResp.Details

	return apiErr
}

// DecodeJSON decodes a JSON response body into the given target.
// The whole body is decoded before the caller sees any value.
func DecodeJSON(resp *http.Response, target any) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
