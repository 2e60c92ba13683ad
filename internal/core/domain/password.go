package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const PasswordMinLength = 8

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "abc12345": {},
	"letmein1": {}, "trustno1": {}, "passw0rd": {}, "superman": {}, "11111111": {},
	"00000000": {}, "87654321": {}, "admin123": {}, "changeme": {}, "dragon12": {},
}

// PasswordProblems returns every policy rule the password breaks. attrs are
// the user's own attributes (email, first name, last name) which the
// password must not resemble.
func PasswordProblems(password string, attrs ...string) []string {
	var problems []string

	if utf8.RuneCountInString(password) < PasswordMinLength {
		problems = append(problems,
			fmt.Sprintf("this password is too short, it must contain at least %d characters", PasswordMinLength))
	}

	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "this password is entirely numeric")
	}

	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		problems = append(problems, "this password is too common")
	}

	for _, attr := range attrs {
		if resembles(lower, attr) {
			problems = append(problems, "the password is too similar to your personal information")
			break
		}
	}
	return problems
}

// resembles treats the email local part and name parts of three or more
// characters as personal information.
func resembles(password, attr string) bool {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if at := strings.IndexByte(attr, '@'); at >= 0 {
		attr = attr[:at]
	}
	if len(attr) < 3 || password == "" {
		return false
	}
	return strings.Contains(password, attr) || strings.Contains(attr, password)
}
