package utils

import (
	"regexp"
	"strings"
	"time"
)

// referralCodeAlphabet deliberately excludes 0, 1, O and I so codes stay
// unambiguous when read aloud or typed from a screenshot. 32 symbols.
const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var referralCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)

// GenerateReferralCode produces a 6-character upper-case code from the safe
// alphabet. On attempt 0 the first two characters are derived from a
// sum-of-byte-codes hash of userID, so retries by the same caller keep a
// stable prefix; on later attempts all six characters are random to escape
// a collision. Uniqueness checking is the caller's job.
func GenerateReferralCode(userID string, attempt int) string {
	buf := make([]byte, ReferralCodeLength)
	start := 0

	if attempt == 0 {
		sum := 0
		for i := 0; i < len(userID); i++ {
			sum += int(userID[i])
		}
		n := len(referralCodeAlphabet)
		buf[0] = referralCodeAlphabet[sum%n]
		buf[1] = referralCodeAlphabet[(sum/n)%n]
		start = 2
	}

	for i := start; i < ReferralCodeLength; i++ {
		buf[i] = referralCodeAlphabet[SecureRandomInt(len(referralCodeAlphabet))]
	}

	return string(buf)
}

// TimestampReferralCode derives a last-resort code from the clock, used when
// the uniqueness retry budget is exhausted. The collision risk is accepted;
// issuance must never block signup.
func TimestampReferralCode(t time.Time) string {
	n := t.UnixNano()
	buf := make([]byte, ReferralCodeLength)
	for i := ReferralCodeLength - 1; i >= 0; i-- {
		buf[i] = referralCodeAlphabet[n&31]
		n >>= 5
	}
	return string(buf)
}

// IsValidReferralCode reports whether code is exactly 6 characters from the
// safe alphabet. Lower-case input is rejected; normalize first for lookups.
func IsValidReferralCode(code string) bool {
	return referralCodePattern.MatchString(code)
}

// NormalizeReferralCode canonicalizes user input for case-insensitive lookup.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
