package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// defaultErrors is used when a failed envelope carries no errors field
var defaultErrors = []any{"Unknown error"}

// Classify maps an HTTP status and an error payload to a typed error:
//
//	401, 203  -> *AuthenticationError
//	400       -> *ValidationError
//	otherwise -> *APIError with Code = status
//
// A nil payload is treated as ["Unknown error"].
func Classify(statusCode int, payload any) error {
	if payload == nil {
		payload = defaultErrors
	}
	base := &APIError{
		Code:    statusCode,
		Message: renderMessage(payload),
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusNonAuthoritativeInfo:
		return &AuthenticationError{APIError: base}
	case http.StatusBadRequest:
		return &ValidationError{APIError: base, FieldErrors: fieldErrors(payload)}
	default:
		return base
	}
}

// transportError wraps a failure that produced no HTTP response
func transportError(err error) error {
	return &APIError{
		Code:    0,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ErrTransport, err),
	}
}

// invalidBodyError reports a 2xx/3xx body that could not be decoded
func invalidBodyError(cause error) error {
	return &APIError{
		Code:    0,
		Message: ErrInvalidResponse.Error(),
		Err:     fmt.Errorf("%w: %w", ErrInvalidResponse, cause),
	}
}

// httpStatusError reports an HTTP error status without a usable error envelope
func httpStatusError(statusCode int, body []byte) error {
	msg := fmt.Sprintf("server responded with status %d %s", statusCode, http.StatusText(statusCode))
	if snippet := bodySnippet(body); snippet != "" {
		msg += ": " + snippet
	}
	return &APIError{Code: statusCode, Message: msg}
}

// renderMessage turns an errors payload into a message: arrays and objects
// become compact JSON, strings are kept as-is.
func renderMessage(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []any, map[string]any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	default:
		return fmt.Sprint(v)
	}
}

// fieldErrors keeps array and object payloads as decoded and wraps scalars
func fieldErrors(payload any) any {
	switch v := payload.(type) {
	case []any, map[string]any:
		return v
	default:
		return []any{v}
	}
}

const maxBodySnippet = 512

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet] + "..."
	}
	return s
}
