// Package validation holds input rules shared by registration and content
// endpoints.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"young_network/model"
)

const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
	MaxContentLength  = 10000
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,50}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidatePassword enforces length plus upper, lower and digit classes.
// The upper bound is in bytes since bcrypt rejects anything past 72.
// The error names the first unmet rule.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return errors.New("password must be at most 72 bytes long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain an uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain a lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain a digit")
	}
	return nil
}

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return errors.New("phone must be 7 to 15 digits with an optional leading +")
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3 to 50 letters, digits, dots or underscores")
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.New("email is not valid")
	}
	return nil
}

// ValidatePlatform accepts the supported music link platforms.
func ValidatePlatform(platform string) error {
	switch platform {
	case model.PlatformYouTube, model.PlatformYandex:
		return nil
	}
	return errors.New("platform must be youtube or yandex")
}

// ValidateContent requires non-blank text within the size limit.
func ValidateContent(field, content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", errors.New(field + " is required")
	}
	if len(trimmed) > MaxContentLength {
		return "", errors.New(field + " is too long")
	}
	return trimmed, nil
}
