// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/activityteams/internal/app/store/audit"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin audit trail.
type Handler struct {
	Audit *audit.Store
	Users *userstore.Store
	Teams *teamstore.Store
	Log   *zap.Logger
}

// NewHandler constructs an audit log feature handler bound to the given
// Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Audit: audit.New(db),
		Users: userstore.New(db),
		Teams: teamstore.New(db),
		Log:   logger,
	}
}
