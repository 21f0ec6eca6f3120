// internal/app/features/activity/handler.go
package activity

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the activity workflow the handlers drive.
// *activities.Service satisfies it.
type Service interface {
	Create(ctx context.Context, a actor.Actor, input []models.Activity) ([]models.Activity, error)
	Write(ctx context.Context, a actor.Actor, ids []primitive.ObjectID, upd activities.Update, opts activities.WriteOptions) ([]models.Activity, error)
	SetAssignedTeamMember(ctx context.Context, a actor.Actor, ids []primitive.ObjectID) ([]models.Activity, error)
	MarkDone(ctx context.Context, a actor.Actor, ids []primitive.ObjectID, feedback string) ([]models.Activity, error)
	Format(ctx context.Context, ids []primitive.ObjectID) ([]activities.Formatted, error)
	DefaultTeam(ctx context.Context, a actor.Actor, resModel string) (*models.Team, error)
	OnTeamChanged(ctx context.Context, draft *models.Activity) (teamassign.UserDomain, error)
	OnMemberChanged(ctx context.Context, draft *models.Activity) (teamassign.TeamDomain, error)
}

// Handler owns the activity API handlers.
type Handler struct {
	Service Service
	Log     *zap.Logger
}

// NewHandler creates a new activity Handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		Log:     logger,
	}
}

// actorFor resolves the signed-in user. Routes guarantee one exists, so a
// failure here is reported as 401.
func (h *Handler) actorFor(w http.ResponseWriter, r *http.Request) (actor.Actor, bool) {
	u, _ := auth.CurrentUser(r)
	a, err := u.Actor()
	if err != nil {
		uierrors.JSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "Please sign in to continue.",
		})
		return actor.Actor{}, false
	}
	return a, true
}

// activitiesResponse carries the affected activities. Warning is set when
// the change was committed but a follow-up (notification, follower) failed.
type activitiesResponse struct {
	Activities []models.Activity `json:"activities"`
	Warning    string            `json:"warning,omitempty"`
}

// respond writes the outcome of a mutating call. Services return the
// committed activities together with an error when only the follow-up failed.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, acts []models.Activity, err error) {
	if err != nil && acts == nil {
		uierrors.Render(w, r, h.Log, err)
		return
	}
	resp := activitiesResponse{Activities: acts}
	if resp.Activities == nil {
		resp.Activities = []models.Activity{}
	}
	if err != nil {
		h.Log.Warn("activity change committed with follow-up errors",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		resp.Warning = err.Error()
	}
	uierrors.JSON(w, status, resp)
}
