package delegation

import (
	"context"
	"testing"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/corpident/identity-hub/pkg/directory"
	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fixture models a manager and an analyst sharing the Finance area of
// one company, plus an analyst in a different area and a plain member with
// no managerial rank.
type delegationFixture struct {
	repo    *directory.InMemoryDirectoryRepository
	audits  *audit.InMemoryAuditRepository
	service *DelegationService

	company   directory.Company
	other     directory.Company
	finance   directory.Area
	logistics directory.Area

	manager    directory.User
	analyst    directory.User
	outsider   directory.User
	nonManager directory.User

	analystMembership directory.Membership
}

func newDelegationFixture(t *testing.T) *delegationFixture {
	t.Helper()
	ctx := context.Background()

	repo := directory.NewInMemoryDirectoryRepository()
	audits := audit.NewInMemoryAuditRepository()
	repo.SetAuditRefChecker(audits.RefersTo)
	service := NewDelegationService(repo, NewInMemoryDelegationRepository(repo, audits), audits)

	f := &delegationFixture{repo: repo, audits: audits, service: service}

	var err error
	f.company, err = repo.CreateCompany(ctx, "Beta Logistics", "beta")
	require.NoError(t, err)
	f.other, err = repo.CreateCompany(ctx, "Alfa Retail", "alfa")
	require.NoError(t, err)
	f.finance, err = repo.CreateArea(ctx, "Finance", "fin")
	require.NoError(t, err)
	f.logistics, err = repo.CreateArea(ctx, "Logistics", "log")
	require.NoError(t, err)

	managerRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Finance Manager",
		Permissions: []string{"reports.view", "reports.export", "procurement.approve_order"},
		Profile:     &directory.RoleProfile{AreaID: f.finance.ID, Managerial: true},
	})
	require.NoError(t, err)
	analystRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Finance Analyst",
		Permissions: []string{"reports.view"},
		Profile:     &directory.RoleProfile{AreaID: f.finance.ID, Managerial: false},
	})
	require.NoError(t, err)
	logisticsRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Logistics Clerk",
		Permissions: []string{"procurement.access"},
		Profile:     &directory.RoleProfile{AreaID: f.logistics.ID, Managerial: false},
	})
	require.NoError(t, err)

	newUser := func(username string) directory.User {
		u, err := repo.CreateUser(ctx, directory.CreateUserParams{
			Username: username, Email: username + "@example.com", PasswordHash: "h",
		})
		require.NoError(t, err)
		return u
	}
	f.manager = newUser("manager")
	f.analyst = newUser("analyst")
	f.outsider = newUser("outsider")
	f.nonManager = newUser("clerk")

	member := func(user directory.User, company directory.Company, role directory.Role) directory.Membership {
		m, err := repo.CreateMembership(ctx, directory.CreateMembershipParams{
			UserID: user.ID, CompanyID: company.ID, RoleID: role.ID,
		})
		require.NoError(t, err)
		return m
	}
	member(f.manager, f.company, managerRole)
	f.analystMembership = member(f.analyst, f.company, analystRole)
	member(f.outsider, f.company, logisticsRole)
	member(f.nonManager, f.company, analystRole)

	return f
}

func (f *delegationFixture) analystExceptions(t *testing.T) []string {
	t.Helper()
	m, err := f.repo.GetMembership(context.Background(), f.analyst.ID, f.company.ID)
	require.NoError(t, err)
	return m.ExceptionPermissions
}

func TestGrantWithinAreaSucceedsAndAudits(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	entry, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)

	assert.Equal(t, audit.ActionGrant, entry.Action)
	assert.Equal(t, f.manager.ID, entry.ActorID)
	assert.Equal(t, f.analyst.ID, entry.AffectedID)
	assert.Equal(t, "reports.export", entry.PermissionCode)
	assert.Equal(t, "Delegation(grant): reports.export in company beta", entry.Detail)

	assert.Equal(t, []string{"reports.export"}, f.analystExceptions(t))

	trail, err := f.audits.FindEntriesByAffected(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestGrantIsIdempotentButAlwaysAudited(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)
	_, err = f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)

	assert.Equal(t, []string{"reports.export"}, f.analystExceptions(t))

	trail, err := f.audits.FindEntriesByAffected(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestRevokeAbsentCodeIsNoOp(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	entry, err := f.service.Revoke(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)
	assert.Equal(t, audit.ActionRevoke, entry.Action)
	assert.Empty(t, f.analystExceptions(t))
}

func TestRevokeCannotTouchBasePermissions(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	// reports.view comes from the analyst role, not from a delegation
	_, err := f.service.Revoke(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.view")
	require.NoError(t, err)

	role, err := f.repo.GetRole(ctx, f.analystMembership.RoleID)
	require.NoError(t, err)
	assert.Contains(t, role.Permissions, "reports.view")
	assert.Empty(t, f.analystExceptions(t))
}

func TestGrantDeniedWithoutMembership(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.other.ID, "reports.export")
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeAccessDenied))
}

func TestGrantDeniedWithoutManagerialRank(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.nonManager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeInsufficientRank))
}

func TestGrantTargetNotFound(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, uuid.New(), f.company.ID, "reports.export")
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeTargetNotFound))
}

func TestGrantAreaMismatch(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.outsider.ID, f.company.ID, "reports.export")
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeAreaMismatch))
}

func TestGrantUnknownPermission(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.delete_everything")
	require.Error(t, err)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeUnknownPermission))
	assert.Empty(t, f.analystExceptions(t))
}

func TestRankCheckedBeforeTargetAndArea(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	// non-manager, target in another area: the rank failure wins
	_, err := f.service.Grant(ctx, f.nonManager.ID, f.outsider.ID, f.company.ID, "reports.export")
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeInsufficientRank))

	// non-manager, unknown target: still the rank failure
	_, err = f.service.Grant(ctx, f.nonManager.ID, uuid.New(), f.company.ID, "reports.export")
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeInsufficientRank))
}

func TestFailedDelegationLeavesNoAuditEntry(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.outsider.ID, f.company.ID, "reports.export")
	require.Error(t, err)

	trail, err := f.audits.FindEntriesByAffected(ctx, f.outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestHistoryForUser(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)
	_, err = f.service.Revoke(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)

	entries, err := f.service.HistoryForUser(ctx, f.manager.ID, f.analyst.ID, f.company.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionGrant, entries[0].Action)
	assert.Equal(t, audit.ActionRevoke, entries[1].Action)

	// history is gated by the same policy
	_, err = f.service.HistoryForUser(ctx, f.nonManager.ID, f.analyst.ID, f.company.ID)
	assert.True(t, hubErrors.IsCode(err, hubErrors.ErrCodeInsufficientRank))
}

func TestAuditHistoryProtectsUsersFromDeletion(t *testing.T) {
	f := newDelegationFixture(t)
	ctx := context.Background()

	_, err := f.service.Grant(ctx, f.manager.ID, f.analyst.ID, f.company.ID, "reports.export")
	require.NoError(t, err)

	assert.ErrorIs(t, f.repo.DeleteUser(ctx, f.manager.ID), directory.ErrUserProtected)
	assert.ErrorIs(t, f.repo.DeleteUser(ctx, f.analyst.ID), directory.ErrUserProtected)

	// a user with no audit history can still be deleted
	require.NoError(t, f.repo.DeleteUser(ctx, f.outsider.ID))
}
