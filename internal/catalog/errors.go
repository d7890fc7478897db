package catalog

import (
	"errors"
	"fmt"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

// Sentinel errors for catalog operations. Every error returned by the
// client also matches domainerrors.ErrNetwork.
var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrRateLimited = errors.New("catalog: rate limited by server")
	ErrBadRequest  = errors.New("catalog: bad request")
	ErrServer      = errors.New("catalog: server error")
	ErrUnavailable = errors.New("catalog: unavailable")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op      string // Operation: "discover", "details"
	MovieID int    // If applicable
	Status  int    // HTTP status, 0 for transport failures
	Err     error
}

func (e *Error) Error() string {
	if e.MovieID != 0 {
		return fmt.Sprintf("catalog %s [%d]: %v", e.Op, e.MovieID, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the cause and the network classification.
func (e *Error) Unwrap() []error {
	return []error{e.Err, domainerrors.ErrNetwork}
}

// wrapError creates an Error with context.
func wrapError(op string, movieID int, err error) error {
	var status *statusError
	code := 0
	if errors.As(err, &status) {
		code = status.code
	}
	return &Error{
		Op:      op,
		MovieID: movieID,
		Status:  code,
		Err:     err,
	}
}

// statusError carries the HTTP status of a failed response alongside its class.
type statusError struct {
	code  int
	class error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.class, e.code)
}

func (e *statusError) Unwrap() error {
	return e.class
}
