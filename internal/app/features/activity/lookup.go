// internal/app/features/activity/lookup.go
package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeFormat handles GET /activities/format?ids=a,b or ?ids=a&ids=b.
func (h *Handler) ServeFormat(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query()["ids"])
	if err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	if len(ids) == 0 {
		uierrors.BadRequest(w, "ids is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Service.Format(ctx, ids)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, out)
}

// ServeDefaultTeam handles GET /activities/default-team?res_model=...
// The team is null when the user belongs to no applicable team.
func (h *Handler) ServeDefaultTeam(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actorFor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, err := h.Service.DefaultTeam(ctx, a, strings.TrimSpace(r.URL.Query().Get("res_model")))
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"team": team})
}

// HandleTeamChanged handles POST /activities/onchange/team.
// The body is the draft activity as edited so far.
func (h *Handler) HandleTeamChanged(w http.ResponseWriter, r *http.Request) {
	var in activityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.BadRequest(w, "Invalid draft: "+err.Error())
		return
	}
	draft := in.model()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	domain, err := h.Service.OnTeamChanged(ctx, &draft)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	if domain.UserIDs == nil {
		domain.UserIDs = []primitive.ObjectID{}
	}
	uierrors.JSON(w, http.StatusOK, onchangeResponse{Activity: draftOf(draft), Domain: domain})
}

// HandleMemberChanged handles POST /activities/onchange/member.
func (h *Handler) HandleMemberChanged(w http.ResponseWriter, r *http.Request) {
	var in activityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.BadRequest(w, "Invalid draft: "+err.Error())
		return
	}
	draft := in.model()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	domain, err := h.Service.OnMemberChanged(ctx, &draft)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, onchangeResponse{Activity: draftOf(draft), Domain: domain})
}

func parseIDs(raw []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, chunk := range raw {
		for _, s := range strings.Split(chunk, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			oid, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, err
			}
			ids = append(ids, oid)
		}
	}
	return ids, nil
}
