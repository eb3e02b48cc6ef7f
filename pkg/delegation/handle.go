package delegation

import (
	"net/http"

	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/login"
	"github.com/corpident/identity-hub/pkg/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type DelegationJSONRequestBody struct {
	TargetUserID   uuid.UUID `json:"target_user_id"`
	PermissionCode string    `json:"permission_code"`
}

type Handle struct {
	delegationService *DelegationService
}

func NewHandle(delegationService *DelegationService) Handle {
	return Handle{delegationService: delegationService}
}

// Routes registers the delegation endpoints. They sit behind the scoped
// token verifier, so the company context always comes from the session.
func Routes(r chi.Router, handle Handle) {
	r.Post("/delegations/grant", handle.PostGrant)
	r.Post("/delegations/revoke", handle.PostRevoke)
	r.Get("/delegations/history/{userID}", handle.GetHistory)
}

// sessionScope extracts the actor and company from the scoped token claims.
func sessionScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "missing or invalid token")
	}

	sub, _ := claims["sub"].(string)
	actorID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "token subject is not a user id")
	}

	companyClaim, _ := claims[login.ClaimCompanyID].(string)
	companyID, err := uuid.Parse(companyClaim)
	if err != nil {
		return uuid.Nil, uuid.Nil, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "token carries no company scope")
	}
	return actorID, companyID, nil
}

// Grant an exception permission
// (POST /delegations/grant)
func (h Handle) PostGrant(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, err := sessionScope(r)
	if err != nil {
		hubErrors.RenderError(w, r, err)
		return
	}

	var body DelegationJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	entry, err := h.delegationService.Grant(r.Context(), actorID, body.TargetUserID, companyID, body.PermissionCode)
	if err != nil {
		obs.Delegations.WithLabelValues("grant", obs.ResultDenied).Inc()
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.Delegations.WithLabelValues("grant", obs.ResultSuccess).Inc()
	render.JSON(w, r, entry)
}

// Revoke an exception permission
// (POST /delegations/revoke)
func (h Handle) PostRevoke(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, err := sessionScope(r)
	if err != nil {
		hubErrors.RenderError(w, r, err)
		return
	}

	var body DelegationJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	entry, err := h.delegationService.Revoke(r.Context(), actorID, body.TargetUserID, companyID, body.PermissionCode)
	if err != nil {
		obs.Delegations.WithLabelValues("revoke", obs.ResultDenied).Inc()
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.Delegations.WithLabelValues("revoke", obs.ResultSuccess).Inc()
	render.JSON(w, r, entry)
}

// Read a target user's delegation history
// (GET /delegations/history/{userID})
func (h Handle) GetHistory(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, err := sessionScope(r)
	if err != nil {
		hubErrors.RenderError(w, r, err)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "invalid user id"))
		return
	}

	entries, err := h.delegationService.HistoryForUser(r.Context(), actorID, targetID, companyID)
	if err != nil {
		hubErrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, entries)
}
