package domain

import "time"

// Role enumerates the actor roles recognized by the service.
type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
)

// User is the domain model for all authenticated actors. Staff members carry
// an additional StaffProfile keyed by their user id.
type User struct {
	ID             string
	OrganizationID string
	Name           string
	Email          string
	PasswordHash   string
	Phone          string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOperator reports whether the user may mutate complaint state.
func (u *User) IsOperator() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
