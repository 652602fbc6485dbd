package model

// Role is the closed set of user roles. Every authorization gate compares
// against these constants; no other value can reach business logic because
// registration rejects anything else.
type Role string

const (
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
)

// Valid reports whether the role is one of the two allowed values
func (r Role) Valid() bool {
	return r == RoleLandlord || r == RoleTenant
}
