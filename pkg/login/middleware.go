package login

import (
	"net/http"

	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/tokengenerator"
	"github.com/go-chi/jwtauth/v5"
)

// RequireScopedToken rejects requests whose token is not a company-scoped
// access token. Temp tokens pass signature verification because both classes
// share the signing key, so the token_type claim is the distinguishing mark.
func RequireScopedToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeTokenMalformed, "missing or invalid token"))
			return
		}
		if claims[tokengenerator.TokenTypeClaim] != tokengenerator.TokenTypeScoped {
			hubErrors.RenderError(w, r, hubErrors.New(hubErrors.ErrCodeAccessDenied, "a company-scoped token is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
