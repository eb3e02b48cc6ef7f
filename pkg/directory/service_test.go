package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *DirectoryService {
	return NewDirectoryService(NewInMemoryDirectoryRepository())
}

func TestCreateUserProvisionsSecurityProfile(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{
		Username:     "vrojas",
		Email:        "Valeria.Rojas@Example.COM",
		FirstName:    "valeria",
		LastName:     "rojas",
		PasswordHash: "$2a$10$fakehash",
	})
	require.NoError(t, err)
	assert.Equal(t, "vrojas", user.Username)
	assert.Equal(t, "valeria.rojas@example.com", user.Email)

	profile, err := svc.GetSecurityProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.MustChangePassword)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserParams{Email: "a@b.com", PasswordHash: "h"})
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, CreateUserParams{Username: "x", PasswordHash: "h"})
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, CreateUserParams{Username: "x", Email: "a@b.com"})
	assert.Error(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserParams{Username: "dup", Email: "one@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserParams{Username: "dup", Email: "two@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, CreateRoleParams{
		Name:        "Analyst",
		Permissions: []string{"reports.view", "reports.delete_everything"},
	})
	assert.Error(t, err)
}

func TestMembershipUniquePerCompany(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "u", Email: "u@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	company, err := svc.CreateCompany(ctx, "Alfa Retail", "alfa")
	require.NoError(t, err)
	analyst, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Analyst", Permissions: []string{"reports.view"}})
	require.NoError(t, err)
	clerk, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Clerk", Permissions: []string{"procurement.access"}})
	require.NoError(t, err)

	_, err = svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: company.ID, RoleID: analyst.ID})
	require.NoError(t, err)

	_, err = svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: company.ID, RoleID: clerk.ID})
	assert.ErrorIs(t, err, ErrDuplicateMembership)
}

func TestMembershipDenormalizesArea(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "m", Email: "m@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	company, err := svc.CreateCompany(ctx, "Beta Logistics", "beta")
	require.NoError(t, err)
	finance, err := svc.CreateArea(ctx, "Finance", "fin")
	require.NoError(t, err)

	manager, err := svc.CreateRole(ctx, CreateRoleParams{
		Name:        "Finance Manager",
		Permissions: []string{"reports.view", "reports.export"},
		Profile:     &RoleProfile{AreaID: finance.ID, Managerial: true},
	})
	require.NoError(t, err)

	membership, err := svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: company.ID, RoleID: manager.ID})
	require.NoError(t, err)
	require.NotNil(t, membership.AreaID)
	assert.Equal(t, finance.ID, *membership.AreaID)
	assert.Empty(t, membership.ExceptionPermissions)

	flat, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Basic", Permissions: []string{"chatbot.access"}})
	require.NoError(t, err)
	other, err := svc.CreateCompany(ctx, "Gamma Foods", "gamma")
	require.NoError(t, err)
	m2, err := svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: other.ID, RoleID: flat.ID})
	require.NoError(t, err)
	assert.Nil(t, m2.AreaID)
}

func TestSetPasswordClearsMustChangeFlag(t *testing.T) {
	repo := NewInMemoryDirectoryRepository()
	svc := NewDirectoryService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "p", Email: "p@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	// hash rotation without clearing keeps the flag
	require.NoError(t, repo.SetPassword(ctx, user.ID, "rotated", false))
	profile, err := svc.GetSecurityProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.MustChangePassword)

	require.NoError(t, repo.SetPassword(ctx, user.ID, "chosen", true))
	profile, err = svc.GetSecurityProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.MustChangePassword)

	updated, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "chosen", updated.PasswordHash)
}

func TestDeleteUserProtectedByAuditRefs(t *testing.T) {
	repo := NewInMemoryDirectoryRepository()
	svc := NewDirectoryService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "d", Email: "d@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	referenced := map[uuid.UUID]bool{user.ID: true}
	repo.SetAuditRefChecker(func(id uuid.UUID) bool { return referenced[id] })

	err = svc.DeleteUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserProtected)

	referenced[user.ID] = false
	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExceptionPermissionsIdempotent(t *testing.T) {
	repo := NewInMemoryDirectoryRepository()
	svc := NewDirectoryService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "e", Email: "e@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	company, err := svc.CreateCompany(ctx, "Beta Logistics", "beta")
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Viewer", Permissions: []string{"reports.view"}})
	require.NoError(t, err)
	membership, err := svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: company.ID, RoleID: role.ID})
	require.NoError(t, err)

	require.NoError(t, repo.AddExceptionPermission(ctx, membership.ID, "reports.export"))
	require.NoError(t, repo.AddExceptionPermission(ctx, membership.ID, "reports.export"))

	got, err := svc.GetMembership(ctx, user.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports.export"}, got.ExceptionPermissions)

	require.NoError(t, repo.RemoveExceptionPermission(ctx, membership.ID, "reports.export"))
	require.NoError(t, repo.RemoveExceptionPermission(ctx, membership.ID, "reports.export"))

	got, err = svc.GetMembership(ctx, user.ID, company.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ExceptionPermissions)

	err = repo.AddExceptionPermission(ctx, uuid.New(), "reports.export")
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestMembershipSnapshotSurvivesRemove(t *testing.T) {
	repo := NewInMemoryDirectoryRepository()
	svc := NewDirectoryService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{Username: "s", Email: "s@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	company, err := svc.CreateCompany(ctx, "Beta Logistics", "beta")
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Viewer", Permissions: []string{"reports.view"}})
	require.NoError(t, err)
	membership, err := svc.CreateMembership(ctx, CreateMembershipParams{UserID: user.ID, CompanyID: company.ID, RoleID: role.ID})
	require.NoError(t, err)

	require.NoError(t, repo.AddExceptionPermission(ctx, membership.ID, "reports.view"))
	require.NoError(t, repo.AddExceptionPermission(ctx, membership.ID, "reports.export"))

	snapshot, err := svc.GetMembership(ctx, user.ID, company.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"reports.view", "reports.export"}, snapshot.ExceptionPermissions)

	// a concurrent revoke must not rewrite what an earlier reader holds
	require.NoError(t, repo.RemoveExceptionPermission(ctx, membership.ID, "reports.view"))
	assert.Equal(t, []string{"reports.view", "reports.export"}, snapshot.ExceptionPermissions)

	got, err := svc.GetMembership(ctx, user.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports.export"}, got.ExceptionPermissions)
}

func TestAreaAndCompanyUniqueness(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, "Finance", "fin")
	require.NoError(t, err)
	_, err = svc.CreateArea(ctx, "Finance", "fin2")
	assert.ErrorIs(t, err, ErrDuplicateArea)
	_, err = svc.CreateArea(ctx, "Financial Planning", "fin")
	assert.ErrorIs(t, err, ErrDuplicateArea)

	_, err = svc.CreateCompany(ctx, "Alfa Retail", "alfa")
	require.NoError(t, err)
	_, err = svc.CreateCompany(ctx, "Alfa Retail", "alfa2")
	assert.ErrorIs(t, err, ErrDuplicateCompany)
	_, err = svc.CreateCompany(ctx, "Alfa Retail Group", "alfa")
	assert.ErrorIs(t, err, ErrDuplicateCompany)
}
