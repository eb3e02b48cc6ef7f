package login

import (
	"time"

	"github.com/google/uuid"
)

// CompanyOption is one company the authenticated user may select in the
// second login phase.
type CompanyOption struct {
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	CompanyCode string    `json:"company_code"`
	RoleName    string    `json:"role_name"`
}

// LoginResult is the outcome of the first login phase: a short-lived temp
// token plus the companies the user can enter. No permissions are resolved
// yet.
type LoginResult struct {
	TempToken          string          `json:"temp_token"`
	ExpiresAt          time.Time       `json:"expires_at"`
	MustChangePassword bool            `json:"must_change_password"`
	Companies          []CompanyOption `json:"companies"`
}

// SessionResult is the outcome of the second phase: a company-scoped access
// token whose claims carry the resolved permission set.
type SessionResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	RoleName    string    `json:"role_name"`
	Permissions []string  `json:"permissions"`
}
