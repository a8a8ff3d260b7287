package authmodel

import (
	"fmt"
	"strings"
)

// ErrorResponse is the error payload of the auth service ({"detail": "..."}).
type ErrorResponse struct {
	Detail      string `json:"detail"`
	Message     string `json:"message,omitempty"`
	MFARequired bool   `json:"mfa_required,omitempty"`
}

// APIError is a non-2xx response from the auth service.
type APIError struct {
	StatusCode  int
	Detail      string
	MFARequired bool
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("auth service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("auth service returned status %d: %s", e.StatusCode, e.Detail)
}

// Text returns the most descriptive message in the payload
func (e ErrorResponse) Text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// IsMFARequired reports whether the payload signals that a second factor is needed.
func (e ErrorResponse) IsMFARequired() bool {
	if e.MFARequired {
		return true
	}
	text := strings.ToLower(e.Text())
	return strings.Contains(text, "mfa required") || strings.Contains(text, "mfa-required") || strings.Contains(text, "mfa_required")
}
