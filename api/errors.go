package api

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid token api configuration")
	// ErrInvalidResponse indicates the API answered with a body that is not JSON
	ErrInvalidResponse = errors.New("invalid response body")
	// ErrTransport indicates the request never produced an HTTP response
	ErrTransport = errors.New("token api transport failure")
)

// ErrorKind tags the three error variants returned by the gateway.
type ErrorKind int

const (
	// KindGeneric is any failure that is neither authentication nor validation
	KindGeneric ErrorKind = iota
	// KindAuthentication is a 401 or 203 error envelope
	KindAuthentication
	// KindValidation is a 400 error envelope
	KindValidation
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	default:
		return "generic"
	}
}

// APIError represents a failed Token Management API call.
// Code is the HTTP status, or 0 for transport failures and unreadable bodies.
type APIError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("token api error: %s", e.Message)
	}
	return fmt.Sprintf("token api error: status %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// Kind reports the error variant
func (e *APIError) Kind() ErrorKind {
	return KindGeneric
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.Code == 404
}

// AuthenticationError is returned for 401 and 203 error envelopes.
type AuthenticationError struct {
	*APIError
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("token api authentication error: status %d: %s", e.Code, e.Message)
}

// Unwrap exposes the embedded APIError to errors.As
func (e *AuthenticationError) Unwrap() error {
	return e.APIError
}

// Kind reports the error variant
func (e *AuthenticationError) Kind() ErrorKind {
	return KindAuthentication
}

// ValidationError is returned for 400 error envelopes.
// FieldErrors holds the decoded errors payload unchanged: a []any for array
// payloads, a map[string]any for keyed payloads.
type ValidationError struct {
	*APIError
	FieldErrors any
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("token api validation error: status %d: %s", e.Code, e.Message)
}

// Unwrap exposes the embedded APIError to errors.As
func (e *ValidationError) Unwrap() error {
	return e.APIError
}

// Kind reports the error variant
func (e *ValidationError) Kind() ErrorKind {
	return KindValidation
}

// Messages flattens FieldErrors into display strings. Keyed payloads are
// rendered as "field: message" in key order.
func (e *ValidationError) Messages() []string {
	switch v := e.FieldErrors.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, renderMessage(item))
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+": "+renderMessage(v[k]))
		}
		return out
	case nil:
		return nil
	default:
		return []string{renderMessage(v)}
	}
}

// IsAuthentication reports whether err is or wraps an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// StatusCode returns the code carried by a gateway error, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// KindOf returns the variant of a gateway error. Errors that did not come
// from the gateway are reported as KindGeneric.
func KindOf(err error) ErrorKind {
	switch {
	case IsAuthentication(err):
		return KindAuthentication
	case IsValidation(err):
		return KindValidation
	default:
		return KindGeneric
	}
}
