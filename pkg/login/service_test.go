package login

import (
	"context"
	"testing"
	"time"

	"github.com/corpident/identity-hub/pkg/directory"
	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/tokengenerator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginFixture struct {
	repo    *directory.InMemoryDirectoryRepository
	service *LoginService
	hasher  PasswordHasher

	user     directory.User
	alfa     directory.Company
	beta     directory.Company
	finance  directory.Area
	roleAlfa directory.Role
	roleBeta directory.Role
	memberB  directory.Membership
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	ctx := context.Background()

	repo := directory.NewInMemoryDirectoryRepository()
	hasher := NewBcryptHasher()
	jwtService := tokengenerator.NewJwtService(
		tokengenerator.WithDefaultTokenGenerator(tokengenerator.NewJwtTokenGenerator("test-secret", "identity-hub", "hub-clients")),
	)
	service := NewLoginService(repo, hasher, jwtService)

	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)

	user, err := repo.CreateUser(ctx, directory.CreateUserParams{
		Username:     "vrojas",
		Email:        "valeria.rojas@example.com",
		FirstName:    "valeria",
		LastName:     "rojas",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	alfa, err := repo.CreateCompany(ctx, "Alfa Retail", "alfa")
	require.NoError(t, err)
	beta, err := repo.CreateCompany(ctx, "Beta Logistics", "beta")
	require.NoError(t, err)
	finance, err := repo.CreateArea(ctx, "Finance", "fin")
	require.NoError(t, err)

	roleAlfa, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Chatbot User",
		Permissions: []string{"chatbot.access"},
	})
	require.NoError(t, err)
	roleBeta, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Finance Analyst",
		Permissions: []string{"reports.view", "procurement.access"},
		Profile:     &directory.RoleProfile{AreaID: finance.ID, Managerial: false},
	})
	require.NoError(t, err)

	_, err = repo.CreateMembership(ctx, directory.CreateMembershipParams{
		UserID: user.ID, CompanyID: alfa.ID, RoleID: roleAlfa.ID,
	})
	require.NoError(t, err)
	memberB, err := repo.CreateMembership(ctx, directory.CreateMembershipParams{
		UserID: user.ID, CompanyID: beta.ID, RoleID: roleBeta.ID,
	})
	require.NoError(t, err)

	return &loginFixture{
		repo:     repo,
		service:  service,
		hasher:   hasher,
		user:     user,
		alfa:     alfa,
		beta:     beta,
		finance:  finance,
		roleAlfa: roleAlfa,
		roleBeta: roleBeta,
		memberB:  memberB,
	}
}

func TestLoginReturnsTempTokenAndCompanies(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	result, err := f.service.Login(ctx, "vrojas", "correct horse battery")
	require.NoError(t, err)

	assert.NotEmpty(t, result.TempToken)
	assert.True(t, result.MustChangePassword)
	assert.WithinDuration(t, time.Now().Add(tokengenerator.DefaultTempTokenExpiry), result.ExpiresAt, 5*time.Second)
	require.Len(t, result.Companies, 2)

	userID, err := f.service.VerifyTempToken(result.TempToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, userID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	_, errUnknown := f.service.Login(ctx, "nobody", "whatever")
	_, errWrongPassword := f.service.Login(ctx, "vrojas", "wrong password")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPassword)
	assert.Equal(t, errUnknown.Error(), errWrongPassword.Error())
	assert.True(t, hubErrors.IsCode(errUnknown, hubErrors.ErrCodeInvalidCredentials))
	assert.True(t, hubErrors.IsCode(errWrongPassword, hubErrors.ErrCodeInvalidCredentials))
}

func TestLoginOmitsDeactivatedCompanies(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.SetCompanyActive(ctx, f.alfa.ID, false))

	result, err := f.service.Login(ctx, "vrojas", "correct horse battery")
	require.NoError(t, err)
	require.Len(t, result.Companies, 1)
	assert.Equal(t, f.beta.ID, result.Companies[0].CompanyID)
}

func TestSelectCompanyIssuesScopedToken(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	session, err := f.service.SelectCompany(ctx, f.user.ID, f.beta.ID)
	require.NoError(t, err)

	assert.Equal(t, f.beta.ID, session.CompanyID)
	assert.Equal(t, "Finance Analyst", session.RoleName)
	assert.Equal(t, []string{"procurement.access", "reports.view"}, session.Permissions)
	assert.WithinDuration(t, time.Now().Add(tokengenerator.DefaultAccessTokenExpiry), session.ExpiresAt, 5*time.Second)

	generator := tokengenerator.NewJwtTokenGenerator("test-secret", "identity-hub", "hub-clients")
	claims, err := generator.ParseToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokengenerator.TokenTypeScoped, claims[tokengenerator.TokenTypeClaim])
	assert.Equal(t, "vrojas", claims[ClaimUsername])
	assert.Equal(t, "Valeria Rojas", claims[ClaimFullName])
	assert.Equal(t, f.beta.ID.String(), claims[ClaimCompanyID])
	assert.Equal(t, "Finance Analyst", claims[ClaimRoleName])
}

func TestSelectCompanyReflectsDelegationChanges(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.AddExceptionPermission(ctx, f.memberB.ID, "reports.export"))

	session, err := f.service.SelectCompany(ctx, f.user.ID, f.beta.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"procurement.access", "reports.export", "reports.view"}, session.Permissions)

	require.NoError(t, f.repo.RemoveExceptionPermission(ctx, f.memberB.ID, "reports.export"))

	session, err = f.service.SelectCompany(ctx, f.user.ID, f.beta.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"procurement.access", "reports.view"}, session.Permissions)
}

func TestSelectCompanyDenialsAreIndistinguishable(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	// no membership in this company
	gamma, err := f.repo.CreateCompany(ctx, "Gamma Foods", "gamma")
	require.NoError(t, err)
	_, errNoMembership := f.service.SelectCompany(ctx, f.user.ID, gamma.ID)

	// unknown company
	_, errUnknownCompany := f.service.SelectCompany(ctx, f.user.ID, uuid.New())

	// deactivated company with a valid membership
	require.NoError(t, f.repo.SetCompanyActive(ctx, f.beta.ID, false))
	_, errInactive := f.service.SelectCompany(ctx, f.user.ID, f.beta.ID)

	for _, err := range []error{errNoMembership, errUnknownCompany, errInactive} {
		require.Error(t, err)
		assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeAccessDenied))
		assert.Equal(t, errNoMembership.Error(), err.Error())
	}
}

func TestVerifyTempTokenRejectsScopedToken(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	session, err := f.service.SelectCompany(ctx, f.user.ID, f.alfa.ID)
	require.NoError(t, err)

	_, err = f.service.VerifyTempToken(session.AccessToken)
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeTokenMalformed))
}
