package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidResponse is returned when a success body cannot be decoded
	ErrInvalidResponse = errors.New("invalid response from server")
	// ErrUnauthenticated is returned when the server rejects the access token
	ErrUnauthenticated = errors.New("authentication required")
)

// APIError is a non-success HTTP response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d %s", e.Status, http.StatusText(e.Status))
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) match 401 responses
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	return nil
}

// newAPIError builds an APIError from a response body. The server reports
// failures as {"message": "..."}; anything else leaves Message empty.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = strings.TrimSpace(payload.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(payload.Error)
		}
	}
	return apiErr
}

// Message turns err into a string for the UI. Server messages win, a status
// error without one falls back to fallback, anything else uses err's text.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}

	if errors.Is(err, ErrInvalidResponse) {
		return fallback
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
