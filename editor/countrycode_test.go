// ABOUTME: Tests for dialing-code detection and removal
// ABOUTME: Verifies longest-prefix matching, fallback and idempotent stripping
package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCountryCodePrefersLongestPrefix(t *testing.T) {
	r := NewCountryCodeResolver("")

	assert.Equal(t, "+1809", r.DetectCountryCode("+18095551234"))
	assert.Equal(t, "+1", r.DetectCountryCode("+14155551234"))
	assert.Equal(t, "+52", r.DetectCountryCode("+52 55 1234 5678"))
	assert.Equal(t, "+502", r.DetectCountryCode("+50212345678"))
}

func TestDetectCountryCodeFallback(t *testing.T) {
	assert.Equal(t, DefaultHomeCode, NewCountryCodeResolver("").DetectCountryCode("5512345678"))
	assert.Equal(t, "+34", NewCountryCodeResolver("+34").DetectCountryCode("612345678"))
}

func TestExtraCodes(t *testing.T) {
	r := NewCountryCodeResolver("", "+1 684")
	assert.Equal(t, "+1684", r.DetectCountryCode("+16845551234"))
}

func TestRemoveCountryCode(t *testing.T) {
	assert.Equal(t, "5512345678", RemoveCountryCode("+525512345678", "+52"))
	assert.Equal(t, "5512345678", RemoveCountryCode("+52 55 1234 5678", "+52"))
	assert.Equal(t, "5512345678", RemoveCountryCode("5512345678", "+52"))
	assert.Equal(t, "+44123", RemoveCountryCode("+44123", ""))
}

func TestRemoveDetectedCodeIsIdempotent(t *testing.T) {
	r := NewCountryCodeResolver("")
	phones := []string{"+18095551234", "+525512345678", "5512345678", "+4420 7946 0958", "+1 415 555 1234"}

	for _, phone := range phones {
		code := r.DetectCountryCode(phone)
		stripped := r.RemoveCountryCode(phone, code)
		assert.False(t, strings.HasPrefix(stripped, code), "phone %q kept prefix %q", phone, code)
		assert.Equal(t, stripped, RemoveCountryCode(stripped, code), "phone %q", phone)
	}
}

func TestSplitAndJoin(t *testing.T) {
	r := NewCountryCodeResolver("")

	code, number := r.Split("+18095551234")
	assert.Equal(t, "+1809", code)
	assert.Equal(t, "5551234", number)
	assert.Equal(t, "+18095551234", JoinPhone(code, number))

	code, number = r.Split("55 1234 5678")
	assert.Equal(t, "+52", code)
	assert.Equal(t, "5512345678", number)

	assert.Equal(t, "", JoinPhone("+52", "  "))
	assert.Equal(t, "+4412345", JoinPhone("+52", "+4412345"))
}
