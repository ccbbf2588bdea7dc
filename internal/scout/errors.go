package scout

import "fmt"

// ValidationError reports malformed input caught before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthenticationError reports a rejected API key (HTTP 401). Never retried.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed: %s", e.Message)
	}
	return "authentication failed: check the API key"
}

// NotFoundError reports a missing resource (HTTP 404).
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

// APIError reports a non-2xx HTTP status or an API-level error envelope
// embedded in an otherwise successful response body.
type APIError struct {
	StatusCode int
	Message    string
	RawBody    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// SSLError reports a TLS verification failure against the API host.
type SSLError struct {
	Err error
}

func (e *SSLError) Error() string {
	return fmt.Sprintf("TLS verification failed: %v (the system certificate store may be misconfigured; set %s to a PEM bundle to override it)", e.Err, EnvCAFile)
}

func (e *SSLError) Unwrap() error { return e.Err }
