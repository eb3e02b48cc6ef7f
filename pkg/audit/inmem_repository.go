package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryAuditRepository implements AuditRepository using in-memory storage
type InMemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryAuditRepository creates a new in-memory audit repository
func NewInMemoryAuditRepository() *InMemoryAuditRepository {
	return &InMemoryAuditRepository{}
}

// AppendEntry records a new audit entry
func (r *InMemoryAuditRepository) AppendEntry(ctx context.Context, params AppendEntryParams) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *InMemoryAuditRepository) find(match func(Entry) bool) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Entry
	for _, e := range r.entries {
		if match(e) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// FindEntriesByAffected returns entries about a user, oldest first
func (r *InMemoryAuditRepository) FindEntriesByAffected(ctx context.Context, affectedID uuid.UUID) ([]Entry, error) {
	return r.find(func(e Entry) bool { return e.AffectedID == affectedID }), nil
}

// FindEntriesByActor returns entries recorded by a manager, oldest first
func (r *InMemoryAuditRepository) FindEntriesByActor(ctx context.Context, actorID uuid.UUID) ([]Entry, error) {
	return r.find(func(e Entry) bool { return e.ActorID == actorID }), nil
}

// HasEntriesFor reports whether any entry references the user
func (r *InMemoryAuditRepository) HasEntriesFor(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ActorID == userID || e.AffectedID == userID {
			return true, nil
		}
	}
	return false, nil
}

// RefersTo is a convenience adapter for wiring protect-on-delete checks
// without a context
func (r *InMemoryAuditRepository) RefersTo(userID uuid.UUID) bool {
	has, _ := r.HasEntriesFor(context.Background(), userID)
	return has
}
