package domain

import "strings"

// NormalizeKey folds a location or room name for equality comparison: outer
// whitespace is trimmed and the result lowercased. Internal spacing is kept,
// so "Sala 01" and "sala01" remain distinct rooms.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizePhone strips everything but digits, so "+55 (11) 99999-0000" and
// "5511999990000" address the same account and the same messaging identity.
func SanitizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
