// Package domain holds the error vocabulary shared by every layer: a short
// list of codes, each with a fixed HTTP status, carried by *Error.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes. Messages of every code but EINTERNAL are safe to show users.
const (
	EINVALID     = "invalid"     // malformed input, incomplete CEP
	ENOTFOUND    = "not_found"   // unknown route or record
	ECONFLICT    = "conflict"    // a lookup is already in flight
	ETOOLARGE    = "too_large"   // request body over the limit
	ERATELIMIT   = "rate_limit"  // client throttled
	EINTERNAL    = "internal"    // anything unexpected; details stay in logs
	EUNAVAILABLE = "unavailable" // external address service unreachable
)

var statusByCode = map[string]int{
	EINVALID:     http.StatusBadRequest,
	ENOTFOUND:    http.StatusNotFound,
	ECONFLICT:    http.StatusConflict,
	ETOOLARGE:    http.StatusRequestEntityTooLarge,
	ERATELIMIT:   http.StatusTooManyRequests,
	EUNAVAILABLE: http.StatusServiceUnavailable,
}

const genericMessage = "Ocorreu um erro interno. Tente novamente mais tarde."

// HTTPStatus returns the response status for code. Unknown codes are 500.
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a coded application error. Op names where it happened
// ("viacep.fetch") and is only logged.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, op, message string, err error) error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Errorf creates an error with a formatted message.
func Errorf(code, op, format string, args ...any) error {
	return newError(code, op, fmt.Sprintf(format, args...), nil)
}

func Invalid(op, message string) error  { return newError(EINVALID, op, message, nil) }
func Conflict(op, message string) error { return newError(ECONFLICT, op, message, nil) }

// NotFound reports a missing record, e.g. NotFound("store.find", "address", "01001000").
func NotFound(op, resource, id string) error {
	return newError(ENOTFOUND, op, fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// Unavailable wraps a failure to reach an external dependency.
func Unavailable(err error, op, message string) error {
	return newError(EUNAVAILABLE, op, message, err)
}

// Internal wraps an unexpected failure. Users only ever see the generic message.
func Internal(err error, op, message string) error {
	return newError(EINTERNAL, op, message, err)
}

// ErrorCode returns the code of the first *Error in err's chain, "" for nil
// and EINTERNAL for anything else.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// ErrorMessage returns the user-facing message for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return genericMessage
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ValidationError collects per-field failures, keyed by field name.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

// Error lists the fields in name order.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	issues := make([]string, len(names))
	for i, name := range names {
		issues[i] = name + ": " + e.Fields[name]
	}

	msg := strings.Join(issues, ", ")
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError records another field failure on err, starting a new
// ValidationError when err is not one.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

// GetValidationFields returns the field failures of err, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
