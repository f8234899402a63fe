package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// APIError is a non-success HTTP response from one of the remote
// services. Message carries the body's "detail" field when the service
// provided one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsAPIError unwraps an *APIError from an error chain.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError builds an APIError from a rejected response body. Both
// services report failures as {"detail": "..."}; anything else falls
// back to a generic message.
func newAPIError(statusCode int, body io.Reader) *APIError {
	message := "request failed"
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Detail != "" {
		message = payload.Detail
	}
	return &APIError{StatusCode: statusCode, Message: message}
}
