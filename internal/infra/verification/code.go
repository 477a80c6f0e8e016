// Package verification generates and validates the 6-digit numeric codes
// used as the link-free alternative for email verification and password reset.
package verification

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// CodeTTL is the fixed lifetime of a verification or reset code.
const CodeTTL = 15 * time.Minute

// codeRange spans the 6-digit values 100000..999999 inclusive.
const (
	codeMin   = 100000
	codeRange = 900000
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// GenerateCode returns a uniformly sampled 6-digit numeric code.
// There is no collision handling: a newly generated code simply overwrites
// any prior unconsumed code for the same purpose on the same user.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", errors.Wrap(err, "failed to sample verification code")
	}

	value := codeMin + n.Int64()
	digits := []byte{
		byte('0' + value/100000%10),
		byte('0' + value/10000%10),
		byte('0' + value/1000%10),
		byte('0' + value/100%10),
		byte('0' + value/10%10),
		byte('0' + value%10),
	}

	return string(digits), nil
}

// CodeExpiry returns the expiry timestamp for a code generated now.
func CodeExpiry() time.Time {
	return time.Now().Add(CodeTTL)
}

// IsExpired reports whether the given expiry has passed.
// A nil expiry counts as expired.
func IsExpired(expiry *time.Time) bool {
	if expiry == nil {
		return true
	}

	return time.Now().After(*expiry)
}

// IsValidFormat reports whether code is exactly 6 digits.
func IsValidFormat(code string) bool {
	return codePattern.MatchString(code)
}
