package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what a delegation did to a permission.
type Action string

const (
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

// Entry is one immutable audit record of a delegation decision. Entries are
// append-only: there is no update or delete path, and the users they
// reference are protected from deletion for as long as the entry exists.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	ActorID        uuid.UUID `json:"actor_id"`
	AffectedID     uuid.UUID `json:"affected_id"`
	CompanyID      uuid.UUID `json:"company_id"`
	Action         Action    `json:"action"`
	PermissionCode string    `json:"permission_code"`
	Detail         string    `json:"detail,omitempty"`
}

// AppendEntryParams contains parameters for recording a new audit entry
type AppendEntryParams struct {
	ActorID        uuid.UUID `json:"actor_id"`
	AffectedID     uuid.UUID `json:"affected_id"`
	CompanyID      uuid.UUID `json:"company_id"`
	Action         Action    `json:"action"`
	PermissionCode string    `json:"permission_code"`
	Detail         string    `json:"detail,omitempty"`
}
