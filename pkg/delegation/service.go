package delegation

import (
	"context"
	"fmt"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/corpident/identity-hub/pkg/directory"
	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/permission"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// DelegationService enforces the delegation policy and applies permission
// grants and revocations through the atomic repository. An operation that
// passes the policy always leaves an audit entry behind, including no-op
// grants of already-present codes: the audit trail records the manager's
// decision, not the storage delta.
type DelegationService struct {
	directory   directory.DirectoryRepository
	delegations DelegationRepository
	audits      audit.AuditRepository
}

func NewDelegationService(dir directory.DirectoryRepository, delegations DelegationRepository, audits audit.AuditRepository) *DelegationService {
	return &DelegationService{
		directory:   dir,
		delegations: delegations,
		audits:      audits,
	}
}

// delegationScope is the validated pair of memberships a delegation acts on.
type delegationScope struct {
	actor  directory.Membership
	target directory.Membership
}

// authorize runs the policy checks in their fixed order. The order is
// observable through the returned error: a non-manager probing a foreign
// company learns about their own standing before anything about the target.
func (s *DelegationService) authorize(ctx context.Context, actorID, targetUserID, companyID uuid.UUID) (delegationScope, error) {
	actorMembership, err := s.directory.GetMembership(ctx, actorID, companyID)
	if err != nil {
		return delegationScope{}, hubErrors.New(hubErrors.ErrCodeAccessDenied, "no membership in this company")
	}

	actorRole, err := s.directory.GetRole(ctx, actorMembership.RoleID)
	if err != nil {
		return delegationScope{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load role")
	}
	if actorRole.Profile == nil || !actorRole.Profile.Managerial {
		return delegationScope{}, hubErrors.New(hubErrors.ErrCodeInsufficientRank, "role does not allow delegation")
	}

	targetMembership, err := s.directory.GetMembership(ctx, targetUserID, companyID)
	if err != nil {
		return delegationScope{}, hubErrors.New(hubErrors.ErrCodeTargetNotFound, "target user has no membership in this company")
	}

	if actorMembership.AreaID == nil || targetMembership.AreaID == nil ||
		*actorMembership.AreaID != *targetMembership.AreaID {
		return delegationScope{}, hubErrors.New(hubErrors.ErrCodeAreaMismatch, "target user belongs to a different area")
	}

	return delegationScope{actor: actorMembership, target: targetMembership}, nil
}

func (s *DelegationService) apply(ctx context.Context, actorID, targetUserID, companyID uuid.UUID, code string, action audit.Action) (audit.Entry, error) {
	scope, err := s.authorize(ctx, actorID, targetUserID, companyID)
	if err != nil {
		return audit.Entry{}, err
	}

	if !permission.Exists(code) {
		return audit.Entry{}, hubErrors.Newf(hubErrors.ErrCodeUnknownPermission, "unknown permission code: %s", code)
	}

	company, err := s.directory.GetCompany(ctx, companyID)
	if err != nil {
		return audit.Entry{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load company")
	}

	entry, err := s.delegations.Apply(ctx, ApplyParams{
		MembershipID:   scope.target.ID,
		Action:         action,
		PermissionCode: code,
		ActorID:        actorID,
		AffectedID:     targetUserID,
		CompanyID:      companyID,
		Detail:         fmt.Sprintf("Delegation(%s): %s in company %s", action, code, company.Code),
	})
	if err != nil {
		slog.Error("Failed to apply delegation", "action", action, "actorId", actorID, "targetId", targetUserID, "err", err)
		return audit.Entry{}, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to apply delegation")
	}

	slog.Info("Delegation applied", "action", action, "actorId", actorID, "targetId", targetUserID,
		"companyId", companyID, "permission", code)
	return entry, nil
}

// Grant adds an exception permission to the target's membership. The change
// takes effect the next time the target selects the company.
func (s *DelegationService) Grant(ctx context.Context, actorID, targetUserID, companyID uuid.UUID, code string) (audit.Entry, error) {
	return s.apply(ctx, actorID, targetUserID, companyID, code, audit.ActionGrant)
}

// Revoke removes an exception permission from the target's membership.
// Revoking a code the target never had is recorded but changes nothing; role
// base permissions are out of reach.
func (s *DelegationService) Revoke(ctx context.Context, actorID, targetUserID, companyID uuid.UUID, code string) (audit.Entry, error) {
	return s.apply(ctx, actorID, targetUserID, companyID, code, audit.ActionRevoke)
}

// HistoryForUser returns the delegation trail of a target user, gated by the
// same policy as the mutations.
func (s *DelegationService) HistoryForUser(ctx context.Context, actorID, targetUserID, companyID uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.authorize(ctx, actorID, targetUserID, companyID); err != nil {
		return nil, err
	}

	entries, err := s.audits.FindEntriesByAffected(ctx, targetUserID)
	if err != nil {
		return nil, hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to load audit entries")
	}

	filtered := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if e.CompanyID == companyID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
