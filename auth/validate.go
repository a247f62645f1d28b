package auth

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	minPasswordLength = 8
	maxPasswordBytes  = 72
	passwordSymbols   = "@$!%*?&"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$")

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func ValidateRegisterRequest(r RegisterRequest) error {
	v := &ValidationError{}
	if !emailRegexp.MatchString(r.Email) {
		v.add("email", "must be a valid email address")
	}
	if utf8.RuneCountInString(r.Name) < minNameLength || strings.TrimSpace(r.Name) == "" {
		v.add("name", fmt.Sprintf("must be at least %d characters", minNameLength))
	}
	if msg := checkPasswordPolicy(r.Password); msg != "" {
		v.add("password", msg)
	}
	return v.orNil()
}

func ValidateLoginRequest(r LoginRequest) error {
	v := &ValidationError{}
	if !emailRegexp.MatchString(r.Email) {
		v.add("email", "must be a valid email address")
	}
	if r.Password == "" {
		v.add("password", "must not be empty")
	}
	return v.orNil()
}

// checkPasswordPolicy returns an empty string when password has at least
// eight characters drawn from letters, digits and passwordSymbols, with at
// least one of each class.
func checkPasswordPolicy(password string) string {
	const policy = "must be at least 8 characters with at least one letter, one number and one of " + passwordSymbols
	if len(password) < minPasswordLength {
		return policy
	}
	if len(password) > maxPasswordBytes {
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	}

	var letter, digit, symbol bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, c):
			symbol = true
		default:
			return policy
		}
	}
	if !letter || !digit || !symbol {
		return policy
	}
	return ""
}
