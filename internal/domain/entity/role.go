// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleAdmin indicates an administrator with access to admin-only operations.
	RoleAdmin Role = "ADMIN"
	// RoleUser indicates a regular user role. This is the default for new accounts.
	RoleUser Role = "USER"
	// RoleCustomer indicates a customer role.
	RoleCustomer Role = "CUSTOMER"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleCustomer:
		return true
	default:
		return false
	}
}

// RoleFromString converts a string to a Role, falling back to RoleUser
// for empty or unknown values.
func RoleFromString(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return RoleUser
	}

	return role
}
