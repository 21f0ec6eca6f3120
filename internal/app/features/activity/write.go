// internal/app/features/activity/write.go
package activity

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleWrite handles PATCH /activities.
// quick_update applies the change without sending assignment notifications.
func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actorFor(w, r)
	if !ok {
		return
	}

	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid activity update: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		uierrors.BadRequest(w, "ids is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acts, err := h.Service.Write(ctx, a, req.IDs, req.update(), activities.WriteOptions{QuickUpdate: req.QuickUpdate})
	h.respond(w, r, http.StatusOK, acts, err)
}

// HandleAssignMe handles POST /activities/{id}/assign-me.
func (h *Handler) HandleAssignMe(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actorFor(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "Bad activity id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acts, err := h.Service.SetAssignedTeamMember(ctx, a, []primitive.ObjectID{id})
	h.respond(w, r, http.StatusOK, acts, err)
}
