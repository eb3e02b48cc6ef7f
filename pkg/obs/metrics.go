package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultError   = "error"
)

var (
	// Logins counts first-phase credential checks by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_logins_total",
		Help: "First-phase login attempts by result.",
	}, []string{"result"})

	// CompanySelections counts second-phase token exchanges by outcome.
	CompanySelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_company_selections_total",
		Help: "Company selections by result.",
	}, []string{"result"})

	// Delegations counts grant and revoke operations by outcome.
	Delegations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_delegations_total",
		Help: "Delegated permission changes by action and result.",
	}, []string{"action", "result"})

	// PasswordResets counts reset requests and confirmations.
	PasswordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_password_resets_total",
		Help: "Password reset operations by stage and result.",
	}, []string{"stage", "result"})
)
