package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so entries can be
// appended standalone or inside a caller's transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresAuditRepository implements AuditRepository on pgx. The table has no
// update or delete statements on purpose.
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new PostgreSQL-backed audit repository
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

// AppendEntry records a new audit entry
func (r *PostgresAuditRepository) AppendEntry(ctx context.Context, params AppendEntryParams) (Entry, error) {
	return appendEntry(ctx, r.pool, params)
}

// AppendEntryTx records a new audit entry inside the caller's transaction.
// The delegation repository uses this to make mutation and audit atomic.
func (r *PostgresAuditRepository) AppendEntryTx(ctx context.Context, tx pgx.Tx, params AppendEntryParams) (Entry, error) {
	return appendEntry(ctx, tx, params)
}

func appendEntry(ctx context.Context, q execer, params AppendEntryParams) (Entry, error) {
	entry := Entry{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC(),
		ActorID:        params.ActorID,
		AffectedID:     params.AffectedID,
		CompanyID:      params.CompanyID,
		Action:         params.Action,
		PermissionCode: params.PermissionCode,
		Detail:         params.Detail,
	}
	_, err := q.Exec(ctx, `
		INSERT INTO audit_entries (id, created_at, actor_id, affected_id, company_id, action, permission_code, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.CreatedAt, entry.ActorID, entry.AffectedID, entry.CompanyID,
		entry.Action, entry.PermissionCode, entry.Detail)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *PostgresAuditRepository) findEntries(ctx context.Context, query string, id uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var detail *string
		err := rows.Scan(&e.ID, &e.CreatedAt, &e.ActorID, &e.AffectedID, &e.CompanyID, &e.Action, &e.PermissionCode, &detail)
		if err != nil {
			return nil, err
		}
		if detail != nil {
			e.Detail = *detail
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// FindEntriesByAffected returns entries about a user, oldest first
func (r *PostgresAuditRepository) FindEntriesByAffected(ctx context.Context, affectedID uuid.UUID) ([]Entry, error) {
	return r.findEntries(ctx, `
		SELECT id, created_at, actor_id, affected_id, company_id, action, permission_code, detail
		FROM audit_entries WHERE affected_id = $1 ORDER BY created_at`, affectedID)
}

// FindEntriesByActor returns entries recorded by a manager, oldest first
func (r *PostgresAuditRepository) FindEntriesByActor(ctx context.Context, actorID uuid.UUID) ([]Entry, error) {
	return r.findEntries(ctx, `
		SELECT id, created_at, actor_id, affected_id, company_id, action, permission_code, detail
		FROM audit_entries WHERE actor_id = $1 ORDER BY created_at`, actorID)
}

// HasEntriesFor reports whether any entry references the user
func (r *PostgresAuditRepository) HasEntriesFor(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM audit_entries WHERE actor_id = $1 OR affected_id = $1)`, userID).
		Scan(&exists)
	return exists, err
}
