package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services return these (usually wrapped with fmt.Errorf and %w) and the API layer
// uses `errors.Is()` to map them to HTTP responses. Nothing below the API layer
// knows about status codes.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedMedia signifies that an attachment has a type the exchange
	// cannot consume. Mapped to 415 Unsupported Media Type.
	ErrUnsupportedMedia = errors.New("unsupported attachment type")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthenticated signifies that the request carried no usable identity.
	// Mapped to 401 Unauthorized.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPermission signifies that the authenticated user is not authorized
	// to perform the requested action.
	// This is typically mapped to a 403 Forbidden HTTP status.
	ErrPermission = errors.New("permission denied")

	// ErrQuotaExceeded signifies that the model backend rejected the request
	// because the account ran out of credit. Mapped to 402 Payment Required.
	ErrQuotaExceeded = errors.New("model quota exceeded")

	// ErrRateLimited signifies that the model backend throttled the request.
	// Mapped to 429 Too Many Requests.
	ErrRateLimited = errors.New("model rate limit reached")

	// ErrUpstream signifies any other model backend failure.
	// Mapped to 502 Bad Gateway.
	ErrUpstream = errors.New("model backend error")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)
