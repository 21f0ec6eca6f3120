// internal/app/features/teams/edit.go
package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	"github.com/dalemusser/activityteams/internal/app/system/status"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createRequest struct {
	Name      string               `json:"name"`
	UserID    *primitive.ObjectID  `json:"user_id"`
	ResModels []string             `json:"res_models"`
	MemberIDs []primitive.ObjectID `json:"member_ids"`
}

// updateRequest uses pointers so absent fields stay unchanged.
// "user_id": "" clears the default responsible. "status": "disabled"
// archives the team.
type updateRequest struct {
	Name      *string             `json:"name"`
	UserID    *primitive.ObjectID `json:"user_id"`
	ResModels *[]string           `json:"res_models"`
	Status    *string             `json:"status"`
}

// HandleCreate handles POST /teams (admin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid team payload.")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		uierrors.BadRequest(w, "Team name is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var team models.Team
	err := h.tx(r.WithContext(ctx), func(ctx context.Context) error {
		var err error
		team, err = h.Teams.Create(ctx, models.Team{
			Name:      req.Name,
			UserID:    req.UserID,
			ResModels: req.ResModels,
		})
		if err != nil {
			return err
		}
		for _, uid := range req.MemberIDs {
			if err := h.Members.Add(ctx, team.ID, uid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}

	actor := actorID(r)
	h.AuditLog.TeamCreated(ctx, actor, team.ID, team.Name)
	for _, uid := range req.MemberIDs {
		h.AuditLog.TeamMemberAdded(ctx, actor, team.ID, uid)
	}
	h.Log.Info("team created", zap.String("team_id", team.ID.Hex()), zap.Int("members", len(req.MemberIDs)))

	view, err := h.loadView(ctx, team.ID)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, view)
}

// HandleUpdate handles PATCH /teams/{id} (admin only).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "Invalid team payload.")
		return
	}
	if req.Status != nil && !status.IsValid(*req.Status) {
		uierrors.BadRequest(w, "Status must be active or disabled.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Teams.Update(ctx, id, teamstore.TeamUpdate{
		Name:      req.Name,
		UserID:    req.UserID,
		ResModels: req.ResModels,
		Status:    req.Status,
	}); err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	h.AuditLog.TeamUpdated(ctx, actorID(r), id, changedFields(req))

	view, err := h.loadView(ctx, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /teams/{id} (admin only).
// Memberships go with the team; activities keep their member but lose the team.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := teamIDParam(r)
	if err != nil {
		uierrors.BadRequest(w, "Bad team id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.GetByID(ctx, id)
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}

	var detached int64
	err = h.tx(r.WithContext(ctx), func(ctx context.Context) error {
		if _, err := h.Members.DeleteByTeam(ctx, id); err != nil {
			return err
		}
		n, err := h.Activities.DetachTeam(ctx, id)
		if err != nil {
			return err
		}
		detached = n
		deleted, err := h.Teams.Delete(ctx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	})
	if err != nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}

	h.AuditLog.TeamDeleted(ctx, actorID(r), id, team.Name)
	h.Log.Info("team deleted",
		zap.String("team_id", id.Hex()),
		zap.Int64("activities_detached", detached))
	w.WriteHeader(http.StatusNoContent)
}

func changedFields(req updateRequest) string {
	var fields []string
	if req.Name != nil {
		fields = append(fields, "name")
	}
	if req.UserID != nil {
		fields = append(fields, "user_id")
	}
	if req.ResModels != nil {
		fields = append(fields, "res_models")
	}
	if req.Status != nil {
		fields = append(fields, "status")
	}
	return strings.Join(fields, ",")
}
