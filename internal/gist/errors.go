package gist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxMessageBytes = 200

var (
	// ErrNotFound is returned when the backup gist or its file does not exist.
	ErrNotFound = errors.New("gist: backup not found")
	// ErrTooLarge is returned when a response body exceeds the read limit.
	ErrTooLarge = errors.New("gist: response too large")
)

// APIError represents a non-2xx response from the GitHub Gist API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gist: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gist: HTTP %d: %s", e.StatusCode, e.Message)
}

// isUnauthorized reports whether err is a rejected credential.
func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

func parseAPIError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(body))
	}
	return &APIError{StatusCode: status, Message: truncateMessage(payload.Message, maxMessageBytes)}
}

// truncateMessage cuts msg to at most limit bytes on a rune boundary.
func truncateMessage(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
