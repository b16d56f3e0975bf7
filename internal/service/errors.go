package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the handlers: each sentinel maps to one HTTP
// status. Anything else coming out of a service is treated as internal.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrMalformedID = errors.New("malformed id")
)

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
