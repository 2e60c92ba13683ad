package domain

import (
	"errors"
	"sort"
	"strings"
)

var ErrInvalidCredentials = errors.New("no user matching credentials")
var ErrUserExists = errors.New("user with this email address already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrTokenNotFound = errors.New("token not found")
var ErrClientNotFound = errors.New("client not found")
var ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")
var ErrForbidden = errors.New("access forbidden")
var ErrAdminExists = errors.New("an admin account already exists")

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError is shorthand for a ValidationError with a single message.
func FieldError(field, msg string) *ValidationError {
	ve := NewValidationError()
	ve.Add(field, msg)
	return ve
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has been rejected.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it holds messages and nil otherwise, so callers can
// write `return ve.OrNil()` without leaking a typed nil.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
