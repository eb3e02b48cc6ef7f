package login

import (
	"context"
	"strings"

	"github.com/corpident/identity-hub/pkg/directory"
	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/permission"
	"github.com/corpident/identity-hub/pkg/tokengenerator"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Claim names carried by the hub's tokens.
const (
	ClaimUsername    = "username"
	ClaimEmail       = "email"
	ClaimFullName    = "full_name"
	ClaimCompanyID   = "company_id"
	ClaimCompanyCode = "company_code"
	ClaimCompanyName = "company_name"
	ClaimRoleName    = "role_name"
	ClaimPermissions = "permissions"
)

// LoginService implements the two-phase login flow. Phase one authenticates
// credentials and issues a temp token with the selectable companies; phase
// two exchanges the temp token plus a company choice for a scoped session.
type LoginService struct {
	repo       directory.DirectoryRepository
	hasher     PasswordHasher
	jwtService *tokengenerator.JwtService
}

func NewLoginService(repo directory.DirectoryRepository, hasher PasswordHasher, jwtService *tokengenerator.JwtService) *LoginService {
	return &LoginService{
		repo:       repo,
		hasher:     hasher,
		jwtService: jwtService,
	}
}

func invalidCredentials() error {
	return hubErrors.New(hubErrors.ErrCodeInvalidCredentials, "invalid username or password")
}

func accessDenied() error {
	return hubErrors.New(hubErrors.ErrCodeAccessDenied, "no access to the requested company")
}

// displayName builds a presentable full name from the stored name parts.
func displayName(user directory.User) string {
	full := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if full == "" {
		return user.Username
	}
	return cases.Title(language.Und).String(strings.ToLower(full))
}

// Login verifies credentials and returns the temp token plus company options.
// Unknown usernames and wrong passwords fail identically, so the endpoint
// cannot be used to probe which accounts exist.
func (s *LoginService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		slog.Info("Login failed", "username", username)
		return LoginResult{}, invalidCredentials()
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.Error("Failed checking password hash", "err", err)
		return LoginResult{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "password verification failed")
	}
	if !valid {
		slog.Info("Login failed", "username", username)
		return LoginResult{}, invalidCredentials()
	}

	companies, err := s.companyOptions(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	profile, err := s.repo.GetSecurityProfile(ctx, user.ID)
	if err != nil {
		slog.Error("Failed to load security profile", "userId", user.ID, "err", err)
		return LoginResult{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load security profile")
	}

	tempToken, expiresAt, err := s.jwtService.GenerateToken(tokengenerator.TEMP_TOKEN_NAME, user.ID.String(), map[string]interface{}{
		ClaimUsername: user.Username,
	})
	if err != nil {
		slog.Error("Failed to create temp token", "userId", user.ID, "err", err)
		return LoginResult{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to create temp token")
	}

	slog.Info("Login succeeded", "userId", user.ID, "companies", len(companies))
	return LoginResult{
		TempToken:          tempToken,
		ExpiresAt:          expiresAt,
		MustChangePassword: profile.MustChangePassword,
		Companies:          companies,
	}, nil
}

// companyOptions lists the active companies the user holds a membership in.
// Memberships in deactivated companies are kept but not selectable.
func (s *LoginService) companyOptions(ctx context.Context, userID uuid.UUID) ([]CompanyOption, error) {
	memberships, err := s.repo.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load memberships")
	}

	options := make([]CompanyOption, 0, len(memberships))
	for _, m := range memberships {
		company, err := s.repo.GetCompany(ctx, m.CompanyID)
		if err != nil {
			return nil, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load company")
		}
		if !company.Active {
			continue
		}
		role, err := s.repo.GetRole(ctx, m.RoleID)
		if err != nil {
			return nil, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load role")
		}
		options = append(options, CompanyOption{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			CompanyCode: company.Code,
			RoleName:    role.Name,
		})
	}
	return options, nil
}

// VerifyTempToken parses a temp token and returns the user it identifies.
// Scoped tokens are rejected even though they share the signing key.
func (s *LoginService) VerifyTempToken(tokenStr string) (uuid.UUID, error) {
	claims, err := s.jwtService.ParseToken(tokengenerator.TEMP_TOKEN_NAME, tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	if claims[tokengenerator.TokenTypeClaim] != tokengenerator.TokenTypeTemp {
		return uuid.Nil, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "token is not a temp token")
	}
	sub, _ := claims.GetSubject()
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "token subject is not a user id")
	}
	return userID, nil
}

// SelectCompany exchanges a verified temp-token user plus a company choice
// for a scoped session. The permission set is recomputed from the role's
// base permissions and the membership's exceptions on every issuance, so a
// delegation change is reflected the next time the user enters the company.
// Missing membership and deactivated company fail identically.
func (s *LoginService) SelectCompany(ctx context.Context, userID, companyID uuid.UUID) (SessionResult, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return SessionResult{}, accessDenied()
	}

	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil || !company.Active {
		slog.Info("Company selection denied", "userId", userID, "companyId", companyID)
		return SessionResult{}, accessDenied()
	}

	membership, err := s.repo.GetMembership(ctx, userID, companyID)
	if err != nil {
		slog.Info("Company selection denied", "userId", userID, "companyId", companyID)
		return SessionResult{}, accessDenied()
	}

	role, err := s.repo.GetRole(ctx, membership.RoleID)
	if err != nil {
		slog.Error("Failed to load role", "roleId", membership.RoleID, "err", err)
		return SessionResult{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load role")
	}

	permissions := permission.Resolve(role.Permissions, membership.ExceptionPermissions)

	accessToken, expiresAt, err := s.jwtService.GenerateToken(tokengenerator.ACCESS_TOKEN_NAME, user.ID.String(), map[string]interface{}{
		ClaimUsername:    user.Username,
		ClaimEmail:       user.Email,
		ClaimFullName:    displayName(user),
		ClaimCompanyID:   company.ID.String(),
		ClaimCompanyCode: company.Code,
		ClaimCompanyName: company.Name,
		ClaimRoleName:    role.Name,
		ClaimPermissions: permissions,
	})
	if err != nil {
		slog.Error("Failed to create access token", "userId", user.ID, "err", err)
		return SessionResult{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to create access token")
	}

	slog.Info("Company selected", "userId", user.ID, "companyId", company.ID, "permissions", len(permissions))
	return SessionResult{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		RoleName:    role.Name,
		Permissions: permissions,
	}, nil
}
