package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	EINTEGRITY = "integrity" // 409 - Store/address invariant broken
	EINTERNAL  = "internal"  // 500 - Internal server error (hide details)
	EINVALID   = "invalid"   // 400 - Validation error (bad input)
	ENOTFOUND  = "not_found" // 404 - Resource not found
)

// genericMessage is shown instead of internal error details.
const genericMessage = "An unexpected error occurred. Please try again later."

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "store.create").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code and message, so that sentinel
// errors still match after being re-issued with an Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithOp returns a copy of e tagged with the given operation.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// ErrorCode extracts the error code from an error.
// Validation errors report EINVALID; nil reports ""; anything else EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Validation failed"
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return genericMessage
		}
		return e.Message
	}

	return genericMessage
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	return ""
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "store.update", "invalid id: %d", id)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// =============================================================================
// Validation Errors (field-level errors, reported in the order they were found)
// =============================================================================

// FieldError is a single field failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError represents one or more field validation failures.
// Each field appears at most once; the first failure wins.
type ValidationError struct {
	// Fields lists failures in the order they were detected.
	Fields []FieldError

	// Op is the operation where validation failed.
	Op string

	// Cause is the error behind a failure, if one field failed because of a
	// lookup (e.g. an unknown postal code). errors.Is sees through it.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		f := e.Fields[0]
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %s", e.Op, f.Field, f.Message)
		}
		return fmt.Sprintf("%s: %s", f.Field, f.Message)
	}

	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields (%s)", e.Op, len(e.Fields), strings.Join(names, ", "))
	}
	return fmt.Sprintf("validation failed for %d fields (%s)", len(e.Fields), strings.Join(names, ", "))
}

// Unwrap returns the recorded cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Add records a failure for field unless the field already failed.
func (e *ValidationError) Add(field, message string) {
	if e.has(field) {
		return
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// has reports whether field already carries a failure.
func (e *ValidationError) has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Empty reports whether no failures were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when nothing failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: []FieldError{{Field: field, Message: message}},
	}
}

// GetValidationFields extracts field errors from a ValidationError.
// Returns nil if err is not a ValidationError.
func GetValidationFields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Common errors (convenience)
// =============================================================================

// Invalid creates a validation error for a single issue.
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Integrity creates an error for a broken store/address invariant.
// The underlying cause, if any, is kept for logging.
func Integrity(err error, op, message string) error {
	return &Error{
		Code:    EINTEGRITY,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
