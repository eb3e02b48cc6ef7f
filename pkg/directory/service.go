package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/corpident/identity-hub/pkg/permission"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// DirectoryService wraps the repository with input validation and catalog
// checks. HTTP handlers and the login/delegation services talk to this
// layer, never to the repository directly.
type DirectoryService struct {
	repo DirectoryRepository
}

func NewDirectoryService(repo DirectoryRepository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

// CreateUser validates input and provisions the user together with its
// security profile. New accounts always start with must_change_password set.
func (s *DirectoryService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if strings.TrimSpace(params.Username) == "" {
		return User{}, fmt.Errorf("username is required")
	}
	if strings.TrimSpace(params.Email) == "" {
		return User{}, fmt.Errorf("email is required")
	}
	if params.PasswordHash == "" {
		return User{}, fmt.Errorf("password hash is required")
	}

	user, err := s.repo.CreateUser(ctx, params)
	if err != nil {
		slog.Error("Failed to create user", "username", params.Username, "err", err)
		return User{}, err
	}
	slog.Info("Created user", "userId", user.ID, "username", user.Username)
	return user, nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *DirectoryService) FindUserByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindUserByUsername(ctx, username)
}

func (s *DirectoryService) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindUserByEmail(ctx, email)
}

// DeleteUser removes a user account. Users referenced by audit history are
// protected and cannot be deleted.
func (s *DirectoryService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		slog.Error("Failed to delete user", "userId", id, "err", err)
		return err
	}
	slog.Info("Deleted user", "userId", id)
	return nil
}

func (s *DirectoryService) GetSecurityProfile(ctx context.Context, userID uuid.UUID) (SecurityProfile, error) {
	return s.repo.GetSecurityProfile(ctx, userID)
}

func (s *DirectoryService) CreateArea(ctx context.Context, name, code string) (Area, error) {
	if strings.TrimSpace(name) == "" {
		return Area{}, fmt.Errorf("area name is required")
	}
	return s.repo.CreateArea(ctx, name, code)
}

func (s *DirectoryService) GetArea(ctx context.Context, id uuid.UUID) (Area, error) {
	return s.repo.GetArea(ctx, id)
}

func (s *DirectoryService) CreateCompany(ctx context.Context, name, code string) (Company, error) {
	if strings.TrimSpace(name) == "" {
		return Company{}, fmt.Errorf("company name is required")
	}
	return s.repo.CreateCompany(ctx, name, code)
}

func (s *DirectoryService) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *DirectoryService) SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetCompanyActive(ctx, id, active)
}

// CreateRole validates every base permission against the catalog before
// creating the role.
func (s *DirectoryService) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	if strings.TrimSpace(params.Name) == "" {
		return Role{}, fmt.Errorf("role name is required")
	}
	for _, code := range params.Permissions {
		if !permission.Exists(code) {
			return Role{}, fmt.Errorf("unknown permission code: %s", code)
		}
	}
	return s.repo.CreateRole(ctx, params)
}

func (s *DirectoryService) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateMembership assigns a role to a user within a company. A user holds
// at most one membership per company.
func (s *DirectoryService) CreateMembership(ctx context.Context, params CreateMembershipParams) (Membership, error) {
	membership, err := s.repo.CreateMembership(ctx, params)
	if err != nil {
		slog.Error("Failed to create membership", "userId", params.UserID, "companyId", params.CompanyID, "err", err)
		return Membership{}, err
	}
	slog.Info("Created membership", "membershipId", membership.ID, "userId", membership.UserID, "companyId", membership.CompanyID)
	return membership, nil
}

func (s *DirectoryService) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (Membership, error) {
	return s.repo.GetMembership(ctx, userID, companyID)
}

func (s *DirectoryService) FindMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	return s.repo.FindMembershipsByUser(ctx, userID)
}
