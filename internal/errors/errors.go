package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services return these instead of HTTP status codes; the API layer uses
// `errors.Is()` to map them to the right responses.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation. Mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrBusy signifies that an operation was rejected because another one is
	// already in flight for the same resource, e.g. starting a second chat turn
	// while a stream is active. Mapped to 409 Conflict.
	ErrBusy = errors.New("operation already in progress")

	// ErrUnavailable signifies that an upstream collaborator (completion
	// endpoint, rate API) could not be reached or returned a failure.
	// Mapped to 502 Bad Gateway.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrInternal signifies an unexpected error on the server. Used to avoid
	// leaking implementation details to the client. Mapped to 500.
	ErrInternal = errors.New("internal server error")
)
