package delegation

import (
	"context"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/google/uuid"
)

// ApplyParams describes one delegation mutation together with the audit
// entry that must record it.
type ApplyParams struct {
	MembershipID   uuid.UUID
	Action         audit.Action
	PermissionCode string

	ActorID    uuid.UUID
	AffectedID uuid.UUID
	CompanyID  uuid.UUID
	Detail     string
}

// DelegationRepository applies a permission mutation and its audit entry as
// one unit. If either side fails, neither is persisted.
type DelegationRepository interface {
	Apply(ctx context.Context, params ApplyParams) (audit.Entry, error)
}
