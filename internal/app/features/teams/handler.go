// internal/app/features/teams/handler.go
package teams

import (
	"context"
	"net/http"

	activitystore "github.com/dalemusser/activityteams/internal/app/store/activity"
	teammemberstore "github.com/dalemusser/activityteams/internal/app/store/teammembers"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/auditlog"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/app/system/txn"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the teams feature.
type Handler struct {
	Client     *mongo.Client
	Teams      *teamstore.Store
	Members    *teammemberstore.Store
	Users      *userstore.Store
	Activities *activitystore.Store
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

// NewHandler constructs a teams Handler from the application database.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:     db.Client(),
		Teams:      teamstore.New(db),
		Members:    teammemberstore.New(db),
		Users:      userstore.New(db),
		Activities: activitystore.New(db),
		AuditLog:   audit,
		Log:        logger,
	}
}

// teamView is the JSON shape of a team with its members.
type teamView struct {
	models.Team
	DefaultUserName string       `json:"default_user_name,omitempty"`
	Members         []memberView `json:"members"`
}

type memberView struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Active bool               `json:"active"`
}

func (h *Handler) tx(r *http.Request, fn func(ctx context.Context) error) error {
	return txn.Run(r.Context(), h.Client, h.Log, fn)
}

func teamIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

func actorID(r *http.Request) primitive.ObjectID {
	u, _ := auth.CurrentUser(r)
	a, _ := u.Actor()
	return a.ID
}
