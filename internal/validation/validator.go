// Package validation wraps a shared go-playground/validator instance with
// the custom rules used by account payloads.
package validation

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@-]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Get returns the singleton validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns the first failed rule, or nil.
func Struct(s any) *FieldError {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &FieldError{Field: "non_field_errors", Tag: "invalid"}
	}
	first := errs[0]
	return &FieldError{Field: first.Field(), Tag: first.Tag(), Param: first.Param()}
}

// ValidUsername reports whether s only uses letters, digits and ".@_-".
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
