package delegation

import (
	"context"
	"fmt"
	"sync"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/corpident/identity-hub/pkg/directory"
)

// InMemoryDelegationRepository composes the in-memory directory and audit
// stores. A single lock across both calls makes the pair atomic.
type InMemoryDelegationRepository struct {
	mu        sync.Mutex
	directory *directory.InMemoryDirectoryRepository
	audits    *audit.InMemoryAuditRepository
}

func NewInMemoryDelegationRepository(dir *directory.InMemoryDirectoryRepository, audits *audit.InMemoryAuditRepository) *InMemoryDelegationRepository {
	return &InMemoryDelegationRepository{
		directory: dir,
		audits:    audits,
	}
}

// Apply mutates the exception set and appends the audit entry. The in-memory
// stores cannot roll back, so the mutation runs first and the append only
// after it succeeded; the append itself cannot fail.
func (r *InMemoryDelegationRepository) Apply(ctx context.Context, params ApplyParams) (audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch params.Action {
	case audit.ActionGrant:
		err = r.directory.AddExceptionPermission(ctx, params.MembershipID, params.PermissionCode)
	case audit.ActionRevoke:
		err = r.directory.RemoveExceptionPermission(ctx, params.MembershipID, params.PermissionCode)
	default:
		return audit.Entry{}, fmt.Errorf("unknown delegation action: %s", params.Action)
	}
	if err != nil {
		return audit.Entry{}, err
	}

	return r.audits.AppendEntry(ctx, audit.AppendEntryParams{
		ActorID:        params.ActorID,
		AffectedID:     params.AffectedID,
		CompanyID:      params.CompanyID,
		Action:         params.Action,
		PermissionCode: params.PermissionCode,
		Detail:         params.Detail,
	})
}
