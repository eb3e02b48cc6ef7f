package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common repository errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCompanyNotFound     = errors.New("company not found")
	ErrRoleNotFound        = errors.New("role not found")
	ErrAreaNotFound        = errors.New("area not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("user already has a membership in this company")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateArea       = errors.New("area name or code already taken")
	ErrDuplicateCompany    = errors.New("company name or code already taken")
	ErrUserProtected       = errors.New("user is referenced by audit entries")
)

// DirectoryRepository defines the interface for membership-store operations.
//
// Implementations must guarantee:
//   - CreateUser provisions the security profile atomically with the user.
//   - CreateMembership enforces at most one membership per (user, company).
//   - AddExceptionPermission / RemoveExceptionPermission apply atomically and
//     are idempotent, so concurrent delegation calls on different codes do
//     not clobber each other.
//   - SetPassword with clearMustChange updates the hash and the flag as one
//     unit, or neither.
type DirectoryRepository interface {
	// User operations
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Credential and security-profile operations
	SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string, clearMustChange bool) error
	GetSecurityProfile(ctx context.Context, userID uuid.UUID) (SecurityProfile, error)

	// Organizational structure
	CreateArea(ctx context.Context, name, code string) (Area, error)
	GetArea(ctx context.Context, id uuid.UUID) (Area, error)
	CreateCompany(ctx context.Context, name, code string) (Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (Company, error)
	SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error
	CreateRole(ctx context.Context, params CreateRoleParams) (Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)

	// Membership operations
	CreateMembership(ctx context.Context, params CreateMembershipParams) (Membership, error)
	GetMembership(ctx context.Context, userID, companyID uuid.UUID) (Membership, error)
	FindMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	AddExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error
	RemoveExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error
}
