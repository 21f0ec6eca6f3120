// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"

	activitystore "github.com/dalemusser/activityteams/internal/app/store/activity"
	"github.com/dalemusser/activityteams/internal/app/store/audit"
	messagestore "github.com/dalemusser/activityteams/internal/app/store/messages"
	"github.com/dalemusser/activityteams/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates the indexes every store relies on. Each step is
// idempotent; failures are collected so one run reports all of them.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	var errs []error

	if err := indexes.EnsureAll(ctx, db); err != nil {
		errs = append(errs, err)
	}
	if err := activitystore.New(db).EnsureIndexes(ctx); err != nil {
		errs = append(errs, errors.New("activities: "+err.Error()))
	}
	if err := messagestore.New(db).EnsureIndexes(ctx); err != nil {
		errs = append(errs, errors.New("messages: "+err.Error()))
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		errs = append(errs, errors.New("audit_events: "+err.Error()))
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("schema setup failed", zap.Error(err))
		return err
	}
	logger.Info("schema ready")
	return nil
}
