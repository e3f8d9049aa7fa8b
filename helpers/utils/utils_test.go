package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	assert.NotEqual(t, a, b)
	assert.True(t, IsUUID(a))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.Len(t, GenerateShortID(), 8)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("a", "b"), Fingerprint("a", "b"))
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	assert.Len(t, Fingerprint("x"), 64)
	assert.Len(t, ShortFingerprint("x"), 16)
	assert.Equal(t, "parse:"+Fingerprint("main st", "en"), CacheKey("Parse", "main st", "en"))
}
