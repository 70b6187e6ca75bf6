// Package errs provides error helpers shared by the protocol packages.
package errs

import (
	"errors"
	"fmt"
)

// SilentError wraps an error that should only show up in the debug log.
//
// It is used to keep the default log quiet when a server sends a packet
// the client cannot read, which happens routinely across the supported
// version range.
type SilentError struct{ error }

func (e *SilentError) Error() string { return e.error.Error() }

func (e *SilentError) Unwrap() error { return e.error }

func NewSilentErr(format string, a ...any) error {
	return &SilentError{fmt.Errorf(format, a...)}
}

func WrapSilent(wrapped error) error {
	return &SilentError{wrapped}
}

// Silent reports whether err is or wraps a SilentError.
func Silent(err error) bool {
	var se *SilentError
	return errors.As(err, &se)
}

// see https://github.com/golang/go/issues/4373 for details
func IsConnClosedErr(err error) bool {
	return err != nil &&
		(err.Error() == "use of closed network connection" ||
			err.Error() == "read: connection reset by peer")
}
