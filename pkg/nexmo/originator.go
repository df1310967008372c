package nexmo

import (
	"strings"
)

// Gateway limits on the originator ("from") field
const (
	MaxAlphanumericOriginator = 11
	MaxNumericOriginator      = 15
)

// ValidateOriginator reformats a sender ID so the gateway will accept it.
// It never rejects: anything other than ASCII letters and digits is
// dropped, alphanumeric IDs are cut to 11 characters, and numeric IDs lose a
// leading international "00" before being cut to 15 digits.
func ValidateOriginator(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	ret := b.String()

	if !IsNumeric(ret) {
		return truncate(ret, MaxAlphanumericOriginator)
	}
	return truncate(strings.TrimPrefix(ret, "00"), MaxNumericOriginator)
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
