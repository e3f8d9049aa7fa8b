package numex

import "strings"

// StripOrdinal removes a language ordinal suffix from a digit token:
// "96th" -> "96", "2eme" -> "2". The longest matching suffix wins and the
// remainder must be all ASCII digits.
func StripOrdinal(token string, suffixes []string) (string, bool) {
	best := ""
	for _, suf := range suffixes {
		if len(suf) > len(best) && len(suf) < len(token) && strings.HasSuffix(token, suf) {
			best = suf
		}
	}
	if best == "" {
		return token, false
	}
	digits := token[:len(token)-len(best)]
	if !allDigits(digits) {
		return token, false
	}
	return digits, true
}

func allDigits(s string) bool {
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
