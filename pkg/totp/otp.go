package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"regexp"
	"time"
)

// InvalidCode is returned by GenerateCode for unusable secrets.
// It can never pass VerifyCode because it is not made of digits.
const InvalidCode = "------"

// skew is the number of adjacent time steps accepted on each side.
const skew = 1

var codeRegex = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, Digits))

// ValidCodeFormat reports whether candidate is exactly six ASCII digits.
func ValidCodeFormat(candidate string) bool {
	return codeRegex.MatchString(candidate)
}

// GenerateCode returns the code for the time step containing at.
// A malformed secret yields InvalidCode instead of an error.
func GenerateCode(s Secret, at time.Time) string {
	if len(s.Raw) == 0 {
		return InvalidCode
	}
	return formatCode(generateHOTP(s.Raw, counterAt(at)))
}

// VerifyCode checks candidate against the current time step and one step on
// either side (a 90 second window).
func VerifyCode(candidate string, s Secret) bool {
	return VerifyCodeAt(candidate, s, time.Now())
}

// VerifyCodeAt is VerifyCode evaluated at the given instant.
// Format is checked before any HMAC work; all three windows are always
// compared so timing does not reveal which window matched.
func VerifyCodeAt(candidate string, s Secret, at time.Time) bool {
	if !ValidCodeFormat(candidate) {
		return false
	}
	if len(s.Raw) == 0 {
		return false
	}

	counter := counterAt(at)
	match := 0
	for i := -skew; i <= skew; i++ {
		expected := formatCode(generateHOTP(s.Raw, counter+uint64(int64(i))))
		match |= subtle.ConstantTimeCompare([]byte(expected), []byte(candidate))
	}
	return match == 1
}

func counterAt(t time.Time) uint64 {
	return uint64(t.Unix() / Period)
}

func formatCode(code uint32) string {
	return fmt.Sprintf("%0*d", Digits, code)
}

// generateHOTP implements RFC 4226.
func generateHOTP(key []byte, counter uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects the offset.
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return code % 1_000_000
}
