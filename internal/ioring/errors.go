package ioring

import "github.com/pkg/errors"

// ErrRingUnavailable is returned when an operation is issued against a
// Ring before Setup.
var ErrRingUnavailable = errors.New("ring_unavailable: ring is not set up")

// ErrSubmissionFull is returned when a vectored operation's buffer
// count would overflow the ring's queue_depth.
var ErrSubmissionFull = errors.New("submission_full: vector length exceeds queue depth")

// ErrInvalidOffset is returned when setting a VectoredBuffer position
// out of its addressable bounds.
var ErrInvalidOffset = errors.New("invalid_offset: position is out of bounds")

// ErrNoPendingIO is returned by HandleCurrentIO when no Read or Write
// has been submitted since the last completion was consumed.
var ErrNoPendingIO = errors.New("no pending I/O operation to complete")

// IOError carries an underlying OS or transfer failure, per spec.md
// §7's io_error(reason, os_code?).
type IOError struct {
	Reason string
	Cause  error
}

func (e *IOError) Error() string {
	if e.Cause != nil {
		return "io_error: " + e.Reason + ": " + e.Cause.Error()
	}
	return "io_error: " + e.Reason
}

func (e *IOError) Unwrap() error { return e.Cause }

func newIOError(reason string, cause error) error {
	return &IOError{Reason: reason, Cause: cause}
}
