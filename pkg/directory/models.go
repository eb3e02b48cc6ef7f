package directory

import (
	"time"

	"github.com/google/uuid"
)

// Area represents a functional department within the corporation,
// e.g. "Finance", "Logistics", "Technology".
type Area struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Code string    `json:"code"`
}

// Company represents an independent legal or business entity a user can hold
// a role in. Deactivation is a soft flag; historical memberships and audit
// records survive it.
type Company struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Code   string    `json:"code"`
	Active bool      `json:"active"`
}

// RoleProfile extends a role with organizational context: the area it belongs
// to and whether its holders may delegate permissions to subordinates.
type RoleProfile struct {
	AreaID     uuid.UUID `json:"area_id"`
	Managerial bool      `json:"managerial"`
}

// Role is a named bundle of base permissions. A role may carry a profile;
// roles without one are flat and can never delegate.
type Role struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Permissions []string     `json:"permissions"`
	Profile     *RoleProfile `json:"profile,omitempty"`
}

// User represents a user account in the hub
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SecurityProfile is a one-to-one extension of a user account holding
// security flags. It is provisioned in the same transaction as the user.
type SecurityProfile struct {
	UserID             uuid.UUID `json:"user_id"`
	MustChangePassword bool      `json:"must_change_password"`
}

// Membership is the central assignment record: who (user) holds what (role)
// where (company). AreaID is a denormalized copy of the role profile's area
// for fast filtering, nullable when the role carries no profile.
// ExceptionPermissions are individually delegated codes scoped to this
// membership, additive to the role's base permissions.
type Membership struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	CompanyID            uuid.UUID  `json:"company_id"`
	RoleID               uuid.UUID  `json:"role_id"`
	AreaID               *uuid.UUID `json:"area_id,omitempty"`
	ExceptionPermissions []string   `json:"exception_permissions"`
}

// CreateUserParams contains parameters for creating a new user
type CreateUserParams struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	PasswordHash string `json:"-"`
}

// CreateRoleParams contains parameters for creating a new role
type CreateRoleParams struct {
	Name        string       `json:"name"`
	Permissions []string     `json:"permissions"`
	Profile     *RoleProfile `json:"profile,omitempty"`
}

// CreateMembershipParams contains parameters for assigning a role to a user
// within a company
type CreateMembershipParams struct {
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	RoleID    uuid.UUID `json:"role_id"`
}
