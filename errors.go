package postsign

import "errors"

var (
	// ErrCredentialsUnavailable is returned when the credentials provider fails
	// or returns an incomplete key pair.
	ErrCredentialsUnavailable = errors.New("credentials unavailable")
	// ErrConfiguration is returned for invalid upload configuration or an unresolved region
	ErrConfiguration = errors.New("configuration error")
	// ErrInternal is returned when an internal invariant is violated
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
)
