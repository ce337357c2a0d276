// Package pgerror defines the error kinds of spec.md §7, independent
// of any single language's exception machinery: small exported struct
// types carrying the fields each kind names, each implementing error
// so callers can errors.As them (IOError also implements Unwrap,
// exposing its cause), following the
// broker/protocol/validator.go ValidationError / ExtendContext
// pattern of naming a struct per failure kind rather than relying on
// string-matched sentinels alone.
package pgerror

import "github.com/pkg/errors"

// CatalogUnavailableError is returned when an operation requires a
// live catalog handle and none is attached.
type CatalogUnavailableError struct {
	Op string
}

func (e *CatalogUnavailableError) Error() string {
	return "catalog_unavailable: " + e.Op
}

// NotFoundError is returned by lookups whose absence is fatal for the
// caller's policy (an existsOk-style flag, when set, downgrades this
// to a no-op instead of propagating it).
type NotFoundError struct {
	Entity     string
	Identifier string
}

func (e *NotFoundError) Error() string {
	return "not_found: " + e.Entity + " " + e.Identifier
}

// AlreadyExistsError is returned by creation operations when the
// target already exists and existsOk is false.
type AlreadyExistsError struct {
	Entity     string
	Identifier string
}

func (e *AlreadyExistsError) Error() string {
	return "already_exists: " + e.Entity + " " + e.Identifier
}

// InvalidArgumentError is returned by parsers and parameter
// validators.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid_argument: " + e.Field + ": " + e.Reason
}

// ProtocolError is returned when the base-backup state machine
// observes an event out of sequence for its current phase.
type ProtocolError struct {
	Phase  string
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol_error: " + e.Phase + ": " + e.Reason
}

// IOError is returned for filesystem or ring transfer failures. OSCode
// is the platform error text when available, empty otherwise.
type IOError struct {
	Reason string
	OSCode string
	Cause  error
}

func (e *IOError) Error() string {
	if e.OSCode != "" {
		return "io_error: " + e.Reason + " (" + e.OSCode + ")"
	}
	return "io_error: " + e.Reason
}

func (e *IOError) Unwrap() error { return e.Cause }

// IntegrityViolationError is returned when an operation would violate
// a catalog invariant, e.g. finalizing a basebackup not in progress.
type IntegrityViolationError struct {
	Invariant string
}

func (e *IntegrityViolationError) Error() string {
	return "integrity_violation: " + e.Invariant
}

// NotFound builds a NotFoundError for entity/identifier.
func NotFound(entity, identifier string) error {
	return &NotFoundError{Entity: entity, Identifier: identifier}
}

// AlreadyExists builds an AlreadyExistsError for entity/identifier.
func AlreadyExists(entity, identifier string) error {
	return &AlreadyExistsError{Entity: entity, Identifier: identifier}
}

// InvalidArgument builds an InvalidArgumentError.
func InvalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// Integrity builds an IntegrityViolationError.
func Integrity(invariant string) error {
	return &IntegrityViolationError{Invariant: invariant}
}

// Protocol builds a ProtocolError for the named phase.
func Protocol(phase, reason string) error {
	return &ProtocolError{Phase: phase, Reason: reason}
}

// IO builds an IOError wrapping cause, with no platform error code.
func IO(reason string, cause error) error {
	return &IOError{Reason: reason, Cause: cause}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists reports whether err is or wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}
