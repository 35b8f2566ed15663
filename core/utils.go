package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseScore reads a user supplied score. Blank input is invalid.
func ParseScore(raw interface{}) (float64, error) {
	if s, ok := raw.(string); raw == nil || (ok && strings.TrimSpace(s) == "") {
		return 0, ErrScoreRequired
	}
	f, ok := Float(raw)
	if !ok {
		return 0, ErrScoreNotNumber
	}
	return f, nil
}
