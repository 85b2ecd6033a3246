package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("backend unreachable")
	// ErrMalformedResponse indicates a successful response with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrAssistant indicates the LLM endpoint reported an error payload.
	ErrAssistant = errors.New("assistant error")
	// ErrInvalidConfig indicates the client configuration is unusable.
	ErrInvalidConfig = errors.New("invalid backend configuration")
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Status int
	// Detail is the backend-provided detail message, if the body carried one.
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Message reduces any client error to a single human-readable line.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.Is(err, ErrTransport):
		return "Could not reach the execution service. Check your connection and try again."
	case errors.Is(err, ErrMalformedResponse):
		return "The execution service returned an unexpected response."
	default:
		return err.Error()
	}
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}

func newHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{Status: status, Detail: extractDetail(body)}
}

// extractDetail reads the "detail" field of an error body. String details are
// returned verbatim, structured details as compact JSON.
func extractDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload.Detail); err != nil {
		return ""
	}
	return compact.String()
}
