package services

import (
	"errors"
	"fmt"

	"github.com/foodgram/apiserver/internal/store"
)

// Error taxonomy shared by every use case. Callers match with errors.Is.
var (
	ErrMissingField     = errors.New("this field is required")
	ErrEmptyField       = errors.New("this field may not be empty")
	ErrDuplicateValue   = errors.New("duplicate values are not allowed")
	ErrOutOfRange       = errors.New("value is out of range")
	ErrInvalidValue     = errors.New("invalid value")
	ErrAlreadyExists    = store.ErrAlreadyExists
	ErrNotFound         = store.ErrNotFound
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("authentication credentials were not provided")
	ErrForbidden        = errors.New("you do not have permission to perform this action")
)

// FieldError ties a rejection to the request field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

func invalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
