package permission

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Routes registers the read-only catalog endpoint.
func Routes(r chi.Router) {
	r.Get("/permissions", GetCatalog)
}

// List the permission catalog grouped by module
// (GET /permissions)
func GetCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Modules())
}
