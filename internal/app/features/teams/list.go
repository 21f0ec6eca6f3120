// internal/app/features/teams/list.go
package teams

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /teams. With ?res_model= only teams that apply to
// that model are returned.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		teams []models.Team
		err   error
	)
	if model := strings.TrimSpace(r.URL.Query().Get("res_model")); model != "" {
		teams, err = h.Teams.ListForModel(ctx, model)
	} else {
		teams, err = h.Teams.List(ctx)
	}
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	uierrors.JSON(w, http.StatusOK, teams)
}

// ServeTeam handles GET /teams/{id}.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.loadView(ctx, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, view)
}

// ServeMembers handles GET /teams/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.loadView(ctx, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, view.Members)
}

// loadView reads a team with all of its members, archived ones included.
func (h *Handler) loadView(ctx context.Context, id primitive.ObjectID) (teamView, error) {
	team, err := h.Teams.GetByID(ctx, id)
	if err != nil {
		return teamView{}, err
	}
	memberIDs, err := h.Members.UserIDs(ctx, id, true)
	if err != nil {
		return teamView{}, err
	}

	lookup := memberIDs
	if team.UserID != nil {
		lookup = append(append([]primitive.ObjectID{}, memberIDs...), *team.UserID)
	}
	users, err := h.Users.GetMany(ctx, lookup)
	if err != nil {
		return teamView{}, err
	}

	view := teamView{Team: team, Members: make([]memberView, 0, len(memberIDs))}
	if team.UserID != nil {
		view.DefaultUserName = users[*team.UserID].FullName
	}
	for _, uid := range memberIDs {
		u, ok := users[uid]
		view.Members = append(view.Members, memberView{
			ID:     uid,
			Name:   u.FullName,
			Active: ok && u.IsActive(),
		})
	}
	return view, nil
}
