package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a successful response carries a body that is not JSON.
var ErrMalformedResponse = errors.New("malformed response body")

// AuthError means the caller should send the user back through sign-in: there is no
// registered account, silent renewal failed, or the backend answered 401/403.
type AuthError struct {
	Status int   // 401 or 403 when the backend rejected the token; 0 otherwise
	Err    error // cause when the failure happened before the request was sent
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed: %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Err != nil {
		return "authentication required: " + e.Err.Error()
	}
	return "authentication required"
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrorClass tags metrics.
func (e *AuthError) ErrorClass() string { return "auth_error" }

// APIError is a non-2xx backend response other than 401/403.
type APIError struct {
	Op      string // "request" or "upload"
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// ErrorClass tags metrics.
func (e *APIError) ErrorClass() string { return "api_error" }

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
