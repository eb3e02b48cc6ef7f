package delegation

import (
	"context"
	"fmt"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDelegationRepository runs the exception mutation and the audit
// append in one transaction, with the audit repository joining through
// AppendEntryTx.
type PostgresDelegationRepository struct {
	pool   *pgxpool.Pool
	audits *audit.PostgresAuditRepository
}

func NewPostgresDelegationRepository(pool *pgxpool.Pool, audits *audit.PostgresAuditRepository) *PostgresDelegationRepository {
	return &PostgresDelegationRepository{pool: pool, audits: audits}
}

// Apply mutates the membership's exception set and appends the audit entry
// atomically.
func (r *PostgresDelegationRepository) Apply(ctx context.Context, params ApplyParams) (audit.Entry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return audit.Entry{}, err
	}
	defer tx.Rollback(ctx)

	var mutation string
	switch params.Action {
	case audit.ActionGrant:
		mutation = `
			UPDATE memberships
			SET exception_permissions = array_append(exception_permissions, $2)
			WHERE id = $1 AND NOT ($2 = ANY(exception_permissions))`
	case audit.ActionRevoke:
		mutation = `
			UPDATE memberships
			SET exception_permissions = array_remove(exception_permissions, $2)
			WHERE id = $1`
	default:
		return audit.Entry{}, fmt.Errorf("unknown delegation action: %s", params.Action)
	}

	if _, err := tx.Exec(ctx, mutation, params.MembershipID, params.PermissionCode); err != nil {
		return audit.Entry{}, err
	}

	entry, err := r.audits.AppendEntryTx(ctx, tx, audit.AppendEntryParams{
		ActorID:        params.ActorID,
		AffectedID:     params.AffectedID,
		CompanyID:      params.CompanyID,
		Action:         params.Action,
		PermissionCode: params.PermissionCode,
		Detail:         params.Detail,
	})
	if err != nil {
		return audit.Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return audit.Entry{}, err
	}
	return entry, nil
}
