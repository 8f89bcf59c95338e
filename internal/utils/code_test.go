package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCodeShape(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		for i := 0; i < 100; i++ {
			code := GenerateReferralCode("user-abc-123", attempt)

			require.Len(t, code, ReferralCodeLength)
			assert.Equal(t, strings.ToUpper(code), code)
			assert.True(t, IsValidReferralCode(code), "code %q should be valid", code)
			for _, forbidden := range []string{"0", "1", "O", "I"} {
				assert.NotContains(t, code, forbidden)
			}
		}
	}
}

func TestGenerateReferralCodeDeterministicPrefix(t *testing.T) {
	a := GenerateReferralCode("user-42", 0)
	b := GenerateReferralCode("user-42", 0)

	assert.Equal(t, a[:2], b[:2], "attempt 0 must keep a stable prefix for the same user")

	// A different user hashes to a different prefix for most inputs; just
	// verify the prefix is derived from the input at all.
	c := GenerateReferralCode("user-42x", 0)
	d := GenerateReferralCode("user-42x", 0)
	assert.Equal(t, c[:2], d[:2])
}

func TestTimestampReferralCode(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC)

	code := TimestampReferralCode(at)
	require.Len(t, code, ReferralCodeLength)
	assert.True(t, IsValidReferralCode(code))

	// Deterministic for a fixed instant.
	assert.Equal(t, code, TimestampReferralCode(at))
}

func TestIsValidReferralCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"ABCDEF", true},
		{"HJKM29", true},
		{"Z2345X", true},
		{"abcdef", false}, // lower-case rejected, normalize first
		{"ABCDE", false},
		{"ABCDEFG", false},
		{"ABC0EF", false}, // zero excluded
		{"ABC1EF", false}, // one excluded
		{"ABCOEF", false}, // letter O excluded
		{"ABCIEF", false}, // letter I excluded
		{"", false},
		{"AB CD2", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidReferralCode(tt.code), "code %q", tt.code)
	}
}

func TestNormalizeReferralCode(t *testing.T) {
	assert.Equal(t, "ABCDEF", NormalizeReferralCode("  abcdef "))
	assert.True(t, IsValidReferralCode(NormalizeReferralCode("hjkm29")))
}
