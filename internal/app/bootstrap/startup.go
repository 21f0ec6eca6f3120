// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/status"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It makes sure the system account exists, applies the admin bootstrap and
// starts the mail outbox.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	cur := timeouts.Current()
	logger.Info("timeouts",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if err := ensureSystemUser(ctx, deps, appCfg.SystemEmail, logger); err != nil {
		return fmt.Errorf("system account: %w", err)
	}
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	}

	if deps.MailOutbox != nil {
		deps.MailOutbox.Start()
	}
	return nil
}

// ensureSystemUser creates the account at models.SuperuserID, with its
// partner identity, if it does not exist yet. An existing account is left
// untouched so operators can rename it.
func ensureSystemUser(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	db := deps.MongoDatabase
	now := time.Now().UTC()
	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"_id": models.SuperuserID}).Decode(&existing)
	if err == nil {
		logger.Debug("system account present", zap.String("email", existing.Email))
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	partnerID := primitive.NewObjectID()
	if _, err := db.Collection("partners").InsertOne(ctx, models.Partner{
		ID:        partnerID,
		Name:      "System",
		Email:     email,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	u := models.User{
		ID:         models.SuperuserID,
		FullName:   "System",
		FullNameCI: text.Fold("System"),
		Email:      email,
		AuthMethod: "password", // no hash: the account cannot sign in
		Role:       "admin",
		Status:     status.Active,
		PartnerID:  &partnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			// Another instance won the race.
			_, _ = db.Collection("partners").DeleteOne(ctx, bson.M{"_id": partnerID})
			return nil
		}
		return err
	}
	logger.Info("created system account", zap.String("email", email))
	return nil
}

// ensureAdmin promotes the user with email to admin, creating a trust-auth
// admin when no such user exists.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch err {
	case nil:
		if u.Role == "admin" {
			return nil
		}
		_, err := deps.MongoDatabase.Collection("users").UpdateByID(ctx, u.ID,
			bson.M{"$set": bson.M{"role": "admin", "updated_at": time.Now().UTC()}})
		if err != nil {
			return err
		}
		logger.Info("promoted user to admin", zap.String("email", u.Email), zap.String("from", u.Role))
		return nil
	case mongo.ErrNoDocuments:
		created, err := users.Create(ctx, models.User{FullName: email, Email: email, Role: "admin"}, "")
		if err != nil {
			return err
		}
		logger.Info("created admin user", zap.String("email", created.Email))
		return nil
	default:
		return err
	}
}
