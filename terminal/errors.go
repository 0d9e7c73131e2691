package terminal

import "github.com/pkg/errors"

// IOError reports a device failure: mode change, size query, read or write
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return "terminal " + e.Op
	}
	return "terminal " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Cause supports errors.Cause from github.com/pkg/errors
func (e *IOError) Cause() error { return e.Err }

// ioErr wraps err as an IOError, returns nil for nil err
func ioErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: errors.WithStack(err)}
}

var (
	// ErrNotTerminal is returned when the device is redirected or otherwise not a tty
	ErrNotTerminal = errors.New("not a terminal")

	// ErrNotEntered is returned by operations that need an entered handle
	ErrNotEntered = errors.New("handle not entered")

	// ErrAlreadyEntered is returned by Enter on a handle that has not been exited
	ErrAlreadyEntered = errors.New("handle already entered")

	// ErrUnsupportedConfig is returned when a backend cannot honor a mode combination
	ErrUnsupportedConfig = errors.New("unsupported mode configuration")
)
