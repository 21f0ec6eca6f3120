// internal/app/features/activity/done.go
package activity

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
)

// HandleDone handles POST /activities/done.
// Activities are archived even when a completion notification fails; the
// failure comes back as a warning.
func (h *Handler) HandleDone(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actorFor(w, r)
	if !ok {
		return
	}

	var req doneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid request: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		uierrors.BadRequest(w, "ids is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	done, err := h.Service.MarkDone(ctx, a, req.IDs, req.Feedback)
	h.respond(w, r, http.StatusOK, done, err)
}
