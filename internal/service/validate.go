package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"unicode"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 60
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateEmail(email string) error {
	if len(email) < 8 || len(email) > 120 {
		return invalidInput("email length must be between 8 and 120")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalidInput("email is not valid")
	}
	return nil
}

// validatePassword requires an upper-case letter, a lower-case letter, a
// digit and a special character.
func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return invalidInput("password length must be between %d and %d", minPasswordLen, maxPasswordLen)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return invalidInput("password must contain upper, lower, digit and special characters")
	}
	return nil
}

func validateCountry(country string) error {
	if len(country) != 2 {
		return invalidInput("country must be an ISO 3166-1 alpha-2 code")
	}
	for _, r := range country {
		if !unicode.IsLetter(r) {
			return invalidInput("country must be an ISO 3166-1 alpha-2 code")
		}
	}
	return nil
}

func validateName(field, value string, min, max int) error {
	if len(value) < min || len(value) > max {
		return invalidInput("%s length must be between %d and %d", field, min, max)
	}
	return nil
}

func validateOptionalURL(field string, value *string) error {
	if value == nil {
		return nil
	}
	if len(*value) > 350 {
		return invalidInput("%s length must not exceed 350", field)
	}
	parsed, err := url.Parse(*value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return invalidInput("%s is not a valid url", field)
	}
	return nil
}
