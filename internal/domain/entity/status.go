// Package entity contains the core business objects of the project.
package entity

// AccountStatus represents the lifecycle state of a user account.
// New accounts start in PENDING_VERIFICATION and become ACTIVE when the
// email address is verified. SUSPENDED and DELETED block login entirely.
type AccountStatus string

const (
	// StatusPendingVerification is the initial state of every new account.
	StatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
	// StatusActive is reached after a successful email verification.
	StatusActive AccountStatus = "ACTIVE"
	// StatusSuspended marks an account that has been administratively suspended.
	StatusSuspended AccountStatus = "SUSPENDED"
	// StatusDeleted marks a soft-deleted account.
	StatusDeleted AccountStatus = "DELETED"
)

// String returns the string representation of the AccountStatus.
func (s AccountStatus) String() string {
	return string(s)
}

// IsValid checks if the AccountStatus is a valid value.
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusPendingVerification, StatusActive, StatusSuspended, StatusDeleted:
		return true
	default:
		return false
	}
}
