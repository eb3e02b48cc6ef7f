package audit

import (
	"context"

	"github.com/google/uuid"
)

// AuditRepository defines the append-only store for delegation audit records
type AuditRepository interface {
	AppendEntry(ctx context.Context, params AppendEntryParams) (Entry, error)
	FindEntriesByAffected(ctx context.Context, affectedID uuid.UUID) ([]Entry, error)
	FindEntriesByActor(ctx context.Context, actorID uuid.UUID) ([]Entry, error)
	// HasEntriesFor reports whether any entry references the user as actor or
	// affected. Used to protect users with audit history from deletion.
	HasEntriesFor(ctx context.Context, userID uuid.UUID) (bool, error)
}
