package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnsupportedProvider is returned by New for an unknown provider name.
	ErrUnsupportedProvider = errors.New("Unsupported provider")

	// ErrAPIKeyRequired is returned by New when a keyed provider has no key.
	ErrAPIKeyRequired = errors.New("API key is required for")

	// ErrEmptyResponse means the vendor answered 2xx without usable text.
	ErrEmptyResponse = errors.New("empty response")
)

// APIError is a non-2xx answer from a vendor.
type APIError struct {
	Provider   string
	StatusCode int

	// Message is the vendor's own error text, when it sent one.
	Message string

	// Summary replaces the default formatting when set.
	Summary string
}

func (e *APIError) Error() string {
	if e.Summary != "" {
		return e.Summary
	}
	return fmt.Sprintf("%s API error [%d]: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether another key or a later attempt might succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable reports whether err wraps a rate-limit or server-side APIError.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

const maxErrorBody = 500

// vendorMessage digs the human message out of an error body.
// Vendors disagree on the shape: {"error":{"message":..}}, {"message":..} or {"error":".."}.
func vendorMessage(status int, body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var detail struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(envelope.Error, &detail) == nil && detail.Message != "" {
				return detail.Message
			}
			var text string
			if json.Unmarshal(envelope.Error, &text) == nil && text != "" {
				return text
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	if r := []rune(text); len(r) > maxErrorBody {
		return string(r[:maxErrorBody]) + "..."
	}
	return text
}
