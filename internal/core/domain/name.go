package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidName is wrapped by every error returned from ValidateName.
var ErrInvalidName = errors.New("invalid name")

const (
	NameMinLength = 2
	NameMaxLength = 100
)

// allowedName rejects digits and a fixed symbol set. Everything else,
// including non-Latin letters, is accepted.
var allowedName = regexp.MustCompile(`^[^0-9_!¡?÷¿/\\+=@#$%^&*(){}|~<>;:\[\]]+$`)

// ValidateName checks a person's name and returns it unchanged (untrimmed)
// when it is acceptable.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	stripped := strings.TrimSpace(name)
	if stripped == "" {
		return "", fmt.Errorf("%w: name cannot consist of only whitespace characters", ErrInvalidName)
	}

	if !allowedName.MatchString(stripped) {
		return "", fmt.Errorf("%w: only letters, spaces, hyphens, apostrophes allowed", ErrInvalidName)
	}
	return name, nil
}

// checkPersonName applies ValidateName plus the stored column's length bounds
// and records any failure under field.
func checkPersonName(ve *ValidationError, field, value string) {
	if _, err := ValidateName(value); err != nil {
		ve.Add(field, err.Error())
		return
	}
	n := utf8.RuneCountInString(value)
	if n < NameMinLength {
		ve.Add(field, fmt.Sprintf("ensure this field has at least %d characters", NameMinLength))
	}
	if n > NameMaxLength {
		ve.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", NameMaxLength))
	}
}
