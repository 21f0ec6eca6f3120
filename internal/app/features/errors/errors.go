// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/activityteams/internal/app/system/auth"
)

// body is the JSON shape of every error response.
type body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves the /forbidden and /unauthorized landing endpoints that
// the auth middleware redirects browsers to.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden reports that the signed-in user lacks the required role.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	msg := "You don't have permission to view this page."
	if u, ok := auth.CurrentUser(r); ok {
		msg = "You (" + u.Name + ") don't have permission to view this page."
	}
	JSON(w, http.StatusForbidden, body{Error: "forbidden", Message: msg})
}

// Unauthorized asks the caller to sign in.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusUnauthorized, body{Error: "unauthorized", Message: "Please sign in to continue."})
}
