// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"math"
	"net/http"
	"time"

	activityfeature "github.com/dalemusser/activityteams/internal/app/features/activity"
	auditlogfeature "github.com/dalemusser/activityteams/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/activityteams/internal/app/features/errors"
	healthfeature "github.com/dalemusser/activityteams/internal/app/features/health"
	loginfeature "github.com/dalemusser/activityteams/internal/app/features/login"
	logoutfeature "github.com/dalemusser/activityteams/internal/app/features/logout"
	recordsfeature "github.com/dalemusser/activityteams/internal/app/features/records"
	teamsfeature "github.com/dalemusser/activityteams/internal/app/features/teams"
	activitystore "github.com/dalemusser/activityteams/internal/app/store/activity"
	"github.com/dalemusser/activityteams/internal/app/store/audit"
	messagestore "github.com/dalemusser/activityteams/internal/app/store/messages"
	recordstore "github.com/dalemusser/activityteams/internal/app/store/records"
	teammemberstore "github.com/dalemusser/activityteams/internal/app/store/teammembers"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/app/system/auditlog"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/app/system/notify"
	"github.com/dalemusser/activityteams/internal/app/system/ratelimit"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"github.com/dalemusser/activityteams/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores, the resolution
// engine and the notification router into the activity service, applies
// session middleware, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request, so role
	// changes and archived accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Activity: appCfg.AuditLogActivity,
		Security: appCfg.AuditLogSecurity,
	})

	svc, err := buildActivityService(appCfg, deps, auditLogger, logger)
	if err != nil {
		logger.Error("activity service init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	// A nil *MailOutbox must not become a non-nil interface.
	var outbox healthfeature.Outbox
	if deps.MailOutbox != nil {
		outbox = deps.MailOutbox
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, outbox, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	users := userstore.New(db)
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLogger, loginLimiter(appCfg), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error responses for redirects from the auth middleware
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Team administration
	teamsHandler := teamsfeature.NewHandler(db, auditLogger, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

	// Activities
	activityHandler := activityfeature.NewHandler(svc, logger)
	r.Mount("/activities", activityfeature.Routes(activityHandler, sessionMgr))

	// Record threads, the target of notification links
	recordsHandler := recordsfeature.NewHandler(db, logger)
	r.Mount("/records", recordsfeature.Routes(recordsHandler, sessionMgr))

	// Audit trail for admins
	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// buildActivityService assembles the activity lifecycle from the stores,
// the resolution engine and the notification router.
func buildActivityService(appCfg AppConfig, deps DBDeps, auditLogger *auditlog.Logger, logger *zap.Logger) (*activities.Service, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	teams := teamstore.New(db)
	members := teammemberstore.New(db)
	messages := messagestore.New(db)

	renderer, err := notify.NewRenderer(appCfg.DefaultLang)
	if err != nil {
		return nil, err
	}
	opts := notify.Options{BaseURL: appCfg.BaseURL}
	if deps.MailOutbox != nil {
		opts.Outbox = deps.MailOutbox
	}
	router := notify.NewRouter(renderer, messages, logger.Named("notify"), opts)

	engine := teamassign.New(teamassign.NewStoreDirectory(teams, members, users), logger.Named("teamassign"))

	return activities.New(activities.Deps{
		Activities: activitystore.New(db),
		Users:      users,
		Records:    recordstore.New(db),
		Teams:      teams,
		Thread:     messages,
		Engine:     engine,
		Router:     router,
		Audit:      auditLogger,
		Tx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return txn.Run(ctx, deps.MongoClient, logger, fn)
		},
		Logger: logger.Named("activities"),
	}), nil
}

// loginLimiter returns nil when both limits are disabled. A single zero
// limit is treated as unlimited for that scope.
func loginLimiter(appCfg AppConfig) *ratelimit.LoginLimiter {
	if appCfg.LoginMaxPerIP <= 0 && appCfg.LoginMaxPerEmail <= 0 {
		return nil
	}
	perIP, perEmail := appCfg.LoginMaxPerIP, appCfg.LoginMaxPerEmail
	if perIP <= 0 {
		perIP = math.MaxInt
	}
	if perEmail <= 0 {
		perEmail = math.MaxInt
	}
	return ratelimit.NewLoginLimiter(perIP, time.Minute, perEmail, 5*time.Minute)
}
