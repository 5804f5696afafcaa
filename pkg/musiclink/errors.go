package musiclink

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned by Authenticate when a provider was configured without secrets.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrTooManyRedirects is returned when too many redirects are encountered.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// AuthError means the provider rejected our credentials. The provider is unusable for the rest of the run.
type AuthError struct {
	Provider ProviderName
	Cause    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// TransportError covers network failures, non-2xx responses and undecodable bodies.
// Callers treat it as "no result" for that one call.
type TransportError struct {
	Provider ProviderName
	Op       string
	Status   int // HTTP status, 0 when no response was received.
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IsAuth reports whether err is or wraps an *AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
