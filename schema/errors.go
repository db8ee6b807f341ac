package schema

import "fmt"

// Error reports an invalid type declaration: unknown kinds, field-number
// conflicts, unresolved type references, unsupported constructs. Registration
// and the .proto loader return it for every mapping failure.
type Error struct {
	Code   string // stable category: "invalid_field", "duplicate_type", ...
	Detail string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "schema: " + e.Detail
	}
	return "schema: " + e.Code + ": " + e.Detail
}

// Errorf builds an Error with the given category code and a formatted detail.
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}
