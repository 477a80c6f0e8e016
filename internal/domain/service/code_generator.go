package service

import "time"

// CodeGenerator produces and validates the short-lived 6-digit codes sent in
// verification and reset emails.
type CodeGenerator interface {
	// Generate returns a new 6-digit numeric code.
	Generate() (string, error)

	// Expiry returns the expiry timestamp for a code generated now.
	Expiry() time.Time

	// IsExpired reports whether the given expiry has passed. Nil counts as expired.
	IsExpired(expiry *time.Time) bool

	// ValidFormat reports whether code is exactly 6 digits.
	ValidFormat(code string) bool
}
