package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the JSON error body returned by every handler.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RenderError writes err as a JSON error response with the HTTP status
// mapped from its error code. Internal errors are masked; everything else
// returns its message verbatim.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	code := GetCode(err)
	message := err.Error()
	if code == ErrCodeInternal {
		message = "internal error"
	}
	render.Status(r, MapErrorCodeToHTTPStatus(code))
	render.JSON(w, r, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
