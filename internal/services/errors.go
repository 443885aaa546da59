package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/setsvm/novi/internal/shared"
)

// APIError describes a failed API operation.
type APIError struct {
	Op      string // Op is the client operation, e.g. "login"
	Status  int    // Status is the HTTP status, or 0 when no response was received
	Message string // Message is the backend's message, surfaced unchanged
	Kind    error  // Kind is one of the shared taxonomy sentinels
	Err     error  // Err is the underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// classify maps a response status to an error kind.
func classify(op string, status int) error {
	if op == opLogin {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return shared.ErrAuthentication
		}
	}

	switch status {
	case http.StatusUnauthorized:
		return shared.ErrAuthentication
	case http.StatusForbidden, http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return shared.ErrValidation
	default:
		return shared.ErrTransport
	}
}

// errorMessage extracts a human message from an error body.
//
// The gateway and its services answer with {"error": ...}, {"detail": ...}, or a map of
// field names to message lists.
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
			return text
		}
		return http.StatusText(status)
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		switch v := payload[field].(type) {
		case string:
			return fmt.Sprintf("%s: %s", field, v)
		case []any:
			if len(v) > 0 {
				return fmt.Sprintf("%s: %v", field, v[0])
			}
		}
	}

	return http.StatusText(status)
}
