package backend

import "errors"

var (
	// ErrUnavailable means the endpoint was unreachable or refused the call.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrTimeout means the bounded wait expired before a response arrived.
	ErrTimeout = errors.New("backend timeout")
	// ErrInvalidResponse means the endpoint answered with something the
	// adapter could not use.
	ErrInvalidResponse = errors.New("invalid backend response")
)

// FailureKind names the sentinel matched by err, for structured logs.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
