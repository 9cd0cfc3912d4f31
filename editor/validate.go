// ABOUTME: Advisory validators for email addresses and phone numbers
// ABOUTME: Empty input is valid since it means "not provided yet"
package editor

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	if s == "" {
		return true
	}
	return emailPattern.MatchString(s)
}

// IsValidPhone reports whether s holds 7-15 digits once separators are removed.
func IsValidPhone(s string) bool {
	if s == "" {
		return true
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '(', ')', '-', '+':
			return -1
		}
		return r
	}, s)

	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
