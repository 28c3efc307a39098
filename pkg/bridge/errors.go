package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a malformed or missing argument.
	ErrInvalidParameter = errors.New("bridge: invalid parameter")

	// ErrInvalidAccountID indicates an account id could not be parsed.
	ErrInvalidAccountID = errors.New("bridge: invalid account id")

	// ErrInvalidNoteIDs indicates a note id list was empty or malformed.
	ErrInvalidNoteIDs = errors.New("bridge: invalid note id list")

	// ErrQueueFull indicates the request queue is at capacity.
	ErrQueueFull = errors.New("bridge: request queue full")

	// ErrClosed indicates the bridge has been closed.
	ErrClosed = errors.New("bridge: closed")

	// ErrTimeout indicates the caller stopped waiting for a result.
	ErrTimeout = errors.New("bridge: timed out waiting for result")

	// ErrInitFailed indicates the client library could not be opened.
	ErrInitFailed = errors.New("bridge: client initialization failed")

	// ErrPanic indicates the client library panicked while serving a request.
	ErrPanic = errors.New("bridge: client library panicked")
)

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op Op, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) && be.Op == op {
		return err
	}
	return &Error{Op: op, Err: err}
}

// OpOf returns the operation recorded in err, if any.
func OpOf(err error) (Op, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Op, true
	}
	return 0, false
}
