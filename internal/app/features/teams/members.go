// internal/app/features/teams/members.go
package teams

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type addMemberRequest struct {
	UserID primitive.ObjectID `json:"user_id"`
}

// HandleAddMember handles POST /teams/{id}/members (admin only).
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID.IsZero() {
		uierrors.BadRequest(w, "A user_id is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Add checks both ends exist; ErrNoDocuments renders as 404.
	if err := h.Members.Add(ctx, teamID, req.UserID); err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	h.AuditLog.TeamMemberAdded(ctx, actorID(r), teamID, req.UserID)

	view, err := h.loadView(ctx, teamID)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, view.Members)
}

// HandleRemoveMember handles DELETE /teams/{id}/members/{userID} (admin only).
// Activities already assigned to the user keep the assignment.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		uierrors.BadRequest(w, "Bad user id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Members.Remove(ctx, teamID, userID); err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	h.AuditLog.TeamMemberRemoved(ctx, actorID(r), teamID, userID)
	w.WriteHeader(http.StatusNoContent)
}
