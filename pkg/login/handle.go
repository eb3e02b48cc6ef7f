package login

import (
	"net/http"
	"strings"

	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type PostLoginJSONRequestBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PostSelectCompanyJSONRequestBody struct {
	TempToken string    `json:"temp_token,omitempty"`
	CompanyID uuid.UUID `json:"company_id"`
}

type Handle struct {
	loginService *LoginService
}

func NewHandle(loginService *LoginService) Handle {
	return Handle{loginService: loginService}
}

// Routes registers the login endpoints on a router.
func Routes(r chi.Router, handle Handle) {
	r.Post("/login", handle.PostLogin)
	r.Post("/login/select-company", handle.PostSelectCompany)
}

// First login phase: verify credentials
// (POST /login)
func (h Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	data := PostLoginJSONRequestBody{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	result, err := h.loginService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		if hubErrors.IsCode(err, hubErrors.ErrCodeInvalidCredentials) {
			obs.Logins.WithLabelValues(obs.ResultDenied).Inc()
		} else {
			obs.Logins.WithLabelValues(obs.ResultError).Inc()
		}
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.Logins.WithLabelValues(obs.ResultSuccess).Inc()
	render.JSON(w, r, result)
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return ""
}

// Second login phase: exchange the temp token for a company-scoped session
// (POST /login/select-company)
func (h Handle) PostSelectCompany(w http.ResponseWriter, r *http.Request) {
	data := PostSelectCompanyJSONRequestBody{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	tokenStr := data.TempToken
	if tokenStr == "" {
		tokenStr = bearerToken(r)
	}
	if tokenStr == "" {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "temp token is required"))
		return
	}

	userID, err := h.loginService.VerifyTempToken(tokenStr)
	if err != nil {
		slog.Info("Temp token rejected", "err", err)
		obs.CompanySelections.WithLabelValues(obs.ResultDenied).Inc()
		hubErrors.RenderError(w, r, err)
		return
	}

	session, err := h.loginService.SelectCompany(r.Context(), userID, data.CompanyID)
	if err != nil {
		if hubErrors.IsCode(err, hubErrors.ErrCodeAccessDenied) {
			obs.CompanySelections.WithLabelValues(obs.ResultDenied).Inc()
		} else {
			obs.CompanySelections.WithLabelValues(obs.ResultError).Inc()
		}
		hubErrors.RenderError(w, r, err)
		return
	}

	obs.CompanySelections.WithLabelValues(obs.ResultSuccess).Inc()
	render.JSON(w, r, session)
}
