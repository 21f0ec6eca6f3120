// internal/app/features/activity/create.go
package activity

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/activityteams/internal/domain/models"
)

// HandleCreate handles POST /activities.
// Body: {"activities":[{...}, ...]}. All are created or none.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actorFor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid activity payload: "+err.Error())
		return
	}
	if len(req.Activities) == 0 {
		uierrors.BadRequest(w, "At least one activity is required.")
		return
	}

	input := make([]models.Activity, 0, len(req.Activities))
	for _, in := range req.Activities {
		input = append(input, in.model())
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Service.Create(ctx, a, input)
	h.respond(w, r, http.StatusCreated, created, err)
}
