// internal/app/features/records/routes.go
package records

import (
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{model}/{id}", h.ServeThread)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))
		pr.Post("/", h.HandleCreate)
		pr.Put("/models/{model}", h.HandleRegisterModel)
	})

	return r
}
