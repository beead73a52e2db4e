// Package errors holds the error taxonomy shared by every swath package.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - ErrorToCode mapping (used for command exit codes)
// - Error wrapping utilities

package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Error codes - used as process exit codes by the swath command
// ============================================================================

const (
	CodeOK            int32 = 0
	CodeUnknown       int32 = 1
	CodeIO            int32 = 2
	CodeBadRecord     int32 = 3
	CodeAlloc         int32 = 4
	CodeUnsupported   int32 = 5
	CodeUnknownFormat int32 = 6
	CodeInvalidConfig int32 = 7
	CodeClosed        int32 = 8
	CodeInternal      int32 = 9
)

// CodeName returns a human-readable name for an error code.
func CodeName(code int32) string {
	switch code {
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "Unknown"
	case CodeIO:
		return "IO"
	case CodeBadRecord:
		return "BadRecord"
	case CodeAlloc:
		return "Alloc"
	case CodeUnsupported:
		return "Unsupported"
	case CodeUnknownFormat:
		return "UnknownFormat"
	case CodeInvalidConfig:
		return "InvalidConfig"
	case CodeClosed:
		return "Closed"
	case CodeInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Code(%d)", code)
	}
}

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// I/O errors. Fatal to the current call; the stream stays closeable.
	ErrShortRead  = errors.New("short read")
	ErrShortWrite = errors.New("short write")

	// Record errors
	ErrBadRecord  = errors.New("bad record")
	ErrBadMagic   = errors.New("bad file magic")
	ErrBadVersion = errors.New("unsupported file version")
	ErrChecksum   = errors.New("checksum mismatch")

	// Allocation failure. Fatal to the whole stream.
	ErrAlloc = errors.New("allocation failed")

	// Capability errors
	ErrUnsupported = errors.New("unsupported operation")

	// ErrKindMismatch documents a Survey-only request made against a
	// record of another kind. Session methods never return it; they leave
	// kind-inapplicable outputs empty instead.
	ErrKindMismatch = errors.New("record kind mismatch")

	// Session errors
	ErrUnknownFormat = errors.New("unknown format")
	ErrClosed        = errors.New("session is closed")
	ErrWrongMode     = errors.New("wrong session mode")
	ErrNoRecord      = errors.New("no current record")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")

	// Internal errors
	ErrInternal = errors.New("internal error")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// IsIO returns true if err is a transport failure.
func IsIO(err error) bool {
	return errors.Is(err, ErrShortRead) ||
		errors.Is(err, ErrShortWrite)
}

// IsBadRecord returns true if err reports undecodable record bytes.
func IsBadRecord(err error) bool {
	return errors.Is(err, ErrBadRecord) ||
		errors.Is(err, ErrBadMagic) ||
		errors.Is(err, ErrBadVersion) ||
		errors.Is(err, ErrChecksum)
}

// IsFatal returns true if err leaves the stream unusable for further calls.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAlloc) ||
		errors.Is(err, ErrClosed)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField)
}

// ============================================================================
// Error to code mapping
// ============================================================================

// ErrorToCode maps a sentinel error to its numeric code.
func ErrorToCode(err error) int32 {
	if err == nil {
		return CodeOK
	}

	switch {
	case IsIO(err):
		return CodeIO
	case IsBadRecord(err):
		return CodeBadRecord
	case Is(err, ErrAlloc):
		return CodeAlloc
	case Is(err, ErrUnsupported), Is(err, ErrWrongMode):
		return CodeUnsupported
	case Is(err, ErrUnknownFormat):
		return CodeUnknownFormat
	case IsValidation(err):
		return CodeInvalidConfig
	case Is(err, ErrClosed):
		return CodeClosed
	default:
		return CodeInternal
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewAlloc reports that count elements of what exceed the stream limit.
func NewAlloc(what string, count, limit int) error {
	return fmt.Errorf("%s: %d exceeds limit %d: %w", what, count, limit, ErrAlloc)
}

// NewUnsupported reports a capability the named format does not implement.
func NewUnsupported(format, op string) error {
	return fmt.Errorf("format %s: %s: %w", format, op, ErrUnsupported)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the collected errors for errors.Is/As support.
func (v *ValidationErrors) Unwrap() []error {
	return v.Errors
}
