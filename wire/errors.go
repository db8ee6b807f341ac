package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes for malformed wire data. They surface wrapped in a
// DecodeError so callers can match either the category or the cause.
var (
	ErrVarintTooLong  = errors.New("varint exceeds 10 bytes")
	ErrVarintOverflow = errors.New("varint overflows 64 bits")
	ErrUnexpectedEOF  = errors.New("unexpected EOF")
	ErrRecursionLimit = errors.New("message nesting exceeds recursion limit")
)

// ValidationError reports a value that cannot be encoded under its declared
// field type: wrong Go type, out-of-range number, non-member enum ordinal,
// invalid UTF-8, missing required value. Marshal fails atomically on it; no
// bytes are produced.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid value: " + e.Detail
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// DecodeError reports malformed wire data. The cause chain keeps the
// sentinel errors above reachable through errors.Is.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "malformed wire data: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(cause error) *DecodeError {
	return &DecodeError{Err: cause}
}

func decodeErrorf(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Err: fmt.Errorf(format, args...)}
}

// FieldError annotates an encoding/decoding error with the field path it
// occurred at.
type FieldError struct {
	FieldPath  []string // e.g., ["order", "items", "price"]
	IsDecoding bool     // decoding error when true, encoding otherwise
	Err        error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	direction := "encoding"
	if e.IsDecoding {
		direction = "decoding"
	}
	if len(e.FieldPath) == 0 {
		return fmt.Sprintf("%s error: %v", direction, e.Err)
	}
	return fmt.Sprintf("%s error at proto path %s: %v", direction, strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// newFieldError creates a bare error destined for field-path wrapping.
func newFieldError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// wrapEncodingFieldError wraps an encoding error with a field name, prepending
// to the path when the error already carries one.
func wrapEncodingFieldError(err error, fieldName string) error {
	return wrapWithField(err, fieldName, false)
}

// wrapDecodingFieldError wraps a decoding error with a field name.
func wrapDecodingFieldError(err error, fieldName string) error {
	return wrapWithField(err, fieldName, true)
}

func wrapWithField(err error, fieldName string, decoding bool) error {
	if err == nil {
		return nil
	}

	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath:  append([]string{fieldName}, fe.FieldPath...),
			IsDecoding: fe.IsDecoding,
			Err:        fe.Err,
		}
	}

	return &FieldError{
		FieldPath:  []string{fieldName},
		IsDecoding: decoding,
		Err:        err,
	}
}
