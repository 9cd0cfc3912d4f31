// ABOUTME: Normalization of emails and phones for cross-contact duplicate lookup
// ABOUTME: Lookup keys are case-folded emails and digit-only phones with a leading plus
package editor

import (
	"strings"
	"unicode"
)

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps digits only and prefixes the result with "+" when the
// input carried one. Formatting characters never affect matching.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return "+" + digits
	}
	return digits
}

// EmailDomain returns the part after "@", lowercased.
func EmailDomain(email string) string {
	parts := strings.Split(NormalizeEmail(email), "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
