// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the team endpoints. Anyone signed in may read teams;
// changes are admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeTeam)
		pr.Get("/{id}/members", h.ServeMembers)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/members", h.HandleAddMember)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)
	})

	return r
}
