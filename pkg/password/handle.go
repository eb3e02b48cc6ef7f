package password

import (
	"net/http"

	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type PasswordResetInitJSONRequestBody struct {
	Email string `json:"email"`
}

type PasswordResetJSONRequestBody struct {
	Uid         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type PasswordChangeJSONRequestBody struct {
	NewPassword string `json:"new_password"`
}

type Handle struct {
	passwordService *PasswordService
}

func NewHandle(passwordService *PasswordService) Handle {
	return Handle{passwordService: passwordService}
}

// PublicRoutes registers the unauthenticated reset endpoints.
func PublicRoutes(r chi.Router, handle Handle) {
	r.Post("/password/reset/init", handle.PostPasswordResetInit)
	r.Post("/password/reset", handle.PostPasswordReset)
}

// ProtectedRoutes registers the endpoints that need a scoped token.
func ProtectedRoutes(r chi.Router, handle Handle) {
	r.Post("/password/change", handle.PostPasswordChange)
}

// Request a password reset link
// (POST /password/reset/init)
func (h Handle) PostPasswordResetInit(w http.ResponseWriter, r *http.Request) {
	var body PasswordResetInitJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	if err := h.passwordService.RequestReset(r.Context(), body.Email); err != nil {
		obs.PasswordResets.WithLabelValues("init", obs.ResultError).Inc()
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.PasswordResets.WithLabelValues("init", obs.ResultSuccess).Inc()
	render.JSON(w, r, map[string]string{
		"message": "If the address exists, a reset link has been sent",
	})
}

// Complete a password reset from a mailed link
// (POST /password/reset)
func (h Handle) PostPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body PasswordResetJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	if err := h.passwordService.ConfirmReset(r.Context(), body.Uid, body.Token, body.NewPassword); err != nil {
		obs.PasswordResets.WithLabelValues("confirm", obs.ResultDenied).Inc()
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.PasswordResets.WithLabelValues("confirm", obs.ResultSuccess).Inc()
	render.JSON(w, r, map[string]string{"message": "Password has been reset"})
}

// Change the password of the authenticated user
// (POST /password/change)
func (h Handle) PostPasswordChange(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "missing or invalid token"))
		return
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "token subject is not a user id"))
		return
	}

	var body PasswordChangeJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	if err := h.passwordService.ChangePassword(r.Context(), userID, body.NewPassword); err != nil {
		hubErrors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"message": "Password has been changed"})
}
