// ABOUTME: Dialing-code detection and stripping for stored phone numbers
// ABOUTME: Matches known prefixes longest-first and falls back to the home market code
package editor

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultHomeCode is the fallback prefix when no known code matches.
const DefaultHomeCode = "+52"

// DefaultDialingCodes is the built-in prefix table. NANP territories that share +1
// are listed with their area code so they win over the bare +1.
var DefaultDialingCodes = []string{
	"+1", "+1787", "+1809", "+1829", "+1849", "+1939",
	"+7", "+20", "+27", "+30", "+31", "+32", "+33", "+34", "+39",
	"+41", "+44", "+45", "+46", "+47", "+48", "+49",
	"+51", "+52", "+53", "+54", "+55", "+56", "+57", "+58",
	"+60", "+61", "+63", "+64", "+65", "+81", "+82", "+86", "+90", "+91",
	"+351", "+353", "+502", "+503", "+504", "+505", "+506", "+507",
	"+591", "+593", "+595", "+598", "+971", "+972",
}

// CountryCodeResolver splits stored phone strings into dialing code and local number.
type CountryCodeResolver struct {
	codes    []string
	fallback string
}

// NewCountryCodeResolver builds a resolver over the default table plus extra codes.
// An empty fallback uses DefaultHomeCode.
func NewCountryCodeResolver(fallback string, extra ...string) *CountryCodeResolver {
	if fallback == "" {
		fallback = DefaultHomeCode
	}

	seen := make(map[string]bool)
	var codes []string
	for _, code := range append(append([]string{}, DefaultDialingCodes...), extra...) {
		code = cleanPhone(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})

	return &CountryCodeResolver{codes: codes, fallback: fallback}
}

// Fallback returns the home-market prefix.
func (r *CountryCodeResolver) Fallback() string {
	return r.fallback
}

// DetectCountryCode returns the longest known prefix of phone, or the fallback.
func (r *CountryCodeResolver) DetectCountryCode(phone string) string {
	cleaned := cleanPhone(phone)
	for _, code := range r.codes {
		if strings.HasPrefix(cleaned, code) {
			return code
		}
	}
	return r.fallback
}

// RemoveCountryCode strips code from the cleaned phone when present.
func (r *CountryCodeResolver) RemoveCountryCode(phone, code string) string {
	return RemoveCountryCode(phone, code)
}

// Split detects the code of phone and returns it with the remaining local number.
func (r *CountryCodeResolver) Split(phone string) (code, number string) {
	code = r.DetectCountryCode(phone)
	return code, RemoveCountryCode(phone, code)
}

// RemoveCountryCode strips code from the whitespace-free phone when it is a prefix.
func RemoveCountryCode(phone, code string) string {
	cleaned := cleanPhone(phone)
	if code != "" && strings.HasPrefix(cleaned, code) {
		return cleaned[len(code):]
	}
	return cleaned
}

// JoinPhone rebuilds a stored phone string from a code and local number.
func JoinPhone(code, number string) string {
	number = cleanPhone(number)
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, "+") {
		return number
	}
	return code + number
}

func cleanPhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
