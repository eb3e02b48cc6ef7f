package directory

import (
	"errors"
	"net/http"

	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// PasswordHasher is the slice of the login hasher the admin surface needs.
// Declared here to keep the package dependency one-directional.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type CreateUserJSONRequestBody struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Password  string `json:"password"`
}

type CreateCompanyJSONRequestBody struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type SetCompanyActiveJSONRequestBody struct {
	Active bool `json:"active"`
}

type CreateAreaJSONRequestBody struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CreateRoleJSONRequestBody struct {
	Name        string       `json:"name"`
	Permissions []string     `json:"permissions"`
	Profile     *RoleProfile `json:"profile,omitempty"`
}

type CreateMembershipJSONRequestBody struct {
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	RoleID    uuid.UUID `json:"role_id"`
}

type Handle struct {
	directoryService *DirectoryService
	hasher           PasswordHasher
}

func NewHandle(directoryService *DirectoryService, hasher PasswordHasher) Handle {
	return Handle{
		directoryService: directoryService,
		hasher:           hasher,
	}
}

// Routes registers the provisioning endpoints. The caller mounts them behind
// whatever administrative protection applies.
func Routes(r chi.Router, handle Handle) {
	r.Post("/admin/users", handle.PostUser)
	r.Delete("/admin/users/{userID}", handle.DeleteUser)
	r.Post("/admin/companies", handle.PostCompany)
	r.Put("/admin/companies/{companyID}/active", handle.PutCompanyActive)
	r.Post("/admin/areas", handle.PostArea)
	r.Post("/admin/roles", handle.PostRole)
	r.Post("/admin/memberships", handle.PostMembership)
}

// mapError translates repository sentinels into coded errors for rendering.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateUsername),
		errors.Is(err, ErrDuplicateMembership),
		errors.Is(err, ErrDuplicateArea),
		errors.Is(err, ErrDuplicateCompany),
		errors.Is(err, ErrUserProtected):
		return hubErrors.Wrap(err, hubErrors.ErrCodeConflict, err.Error())
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCompanyNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrAreaNotFound),
		errors.Is(err, ErrMembershipNotFound):
		return hubErrors.Wrap(err, hubErrors.ErrCodeNotFound, err.Error())
	default:
		return hubErrors.Wrap(err, hubErrors.ErrCodeInvalidInput, err.Error())
	}
}

// Provision a user account
// (POST /admin/users)
func (h Handle) PostUser(w http.ResponseWriter, r *http.Request) {
	var body CreateUserJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	hash, err := h.hasher.Hash(body.Password)
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "password is required"))
		return
	}

	params := CreateUserParams{PasswordHash: hash}
	copier.Copy(&params, body)

	user, err := h.directoryService.CreateUser(r.Context(), params)
	if err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// Delete a user account
// (DELETE /admin/users/{userID})
func (h Handle) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "invalid user id"))
		return
	}

	if err := h.directoryService.DeleteUser(r.Context(), userID); err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.NoContent(w, r)
}

// Create a company
// (POST /admin/companies)
func (h Handle) PostCompany(w http.ResponseWriter, r *http.Request) {
	var body CreateCompanyJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	company, err := h.directoryService.CreateCompany(r.Context(), body.Name, body.Code)
	if err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, company)
}

// Activate or deactivate a company
// (PUT /admin/companies/{companyID}/active)
func (h Handle) PutCompanyActive(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "invalid company id"))
		return
	}

	var body SetCompanyActiveJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	if err := h.directoryService.SetCompanyActive(r.Context(), companyID, body.Active); err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.NoContent(w, r)
}

// Create an area
// (POST /admin/areas)
func (h Handle) PostArea(w http.ResponseWriter, r *http.Request) {
	var body CreateAreaJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	area, err := h.directoryService.CreateArea(r.Context(), body.Name, body.Code)
	if err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, area)
}

// Create a role
// (POST /admin/roles)
func (h Handle) PostRole(w http.ResponseWriter, r *http.Request) {
	var body CreateRoleJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	params := CreateRoleParams{}
	copier.Copy(&params, body)

	role, err := h.directoryService.CreateRole(r.Context(), params)
	if err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, role)
}

// Assign a role to a user within a company
// (POST /admin/memberships)
func (h Handle) PostMembership(w http.ResponseWriter, r *http.Request) {
	var body CreateMembershipJSONRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeInvalidInput, "unable to parse request body"))
		return
	}

	params := CreateMembershipParams{}
	copier.Copy(&params, body)

	membership, err := h.directoryService.CreateMembership(r.Context(), params)
	if err != nil {
		hubErrors.RenderError(w, r, mapError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, membership)
}
