package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a stable hex digest of parts. Parts are separated by
// a byte that never occurs in text, so ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortFingerprint is the first 16 hex characters of Fingerprint.
func ShortFingerprint(parts ...string) string {
	return Fingerprint(parts...)[:16]
}

// CacheKey builds a namespaced cache key such as "parse:3f2a...".
func CacheKey(op string, parts ...string) string {
	return strings.ToLower(op) + ":" + Fingerprint(parts...)
}
