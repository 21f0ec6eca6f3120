// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity API; every endpoint needs a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Patch("/", h.HandleWrite)
		pr.Post("/done", h.HandleDone)
		pr.Get("/format", h.ServeFormat)
		pr.Get("/default-team", h.ServeDefaultTeam)
		pr.Post("/onchange/team", h.HandleTeamChanged)
		pr.Post("/onchange/member", h.HandleMemberChanged)
		pr.Post("/{id}/assign-me", h.HandleAssignMe)
	})

	return r
}
