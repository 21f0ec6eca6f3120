// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// appConfigKeys defines the configuration keys for the activity team service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ACTIVITYTEAMS_MONGO_URI, ACTIVITYTEAMS_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "activity_teams", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "activityteams-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables notification email)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Activity Teams", Desc: "From display name"},
	{Name: "mail_queue_size", Default: 500, Desc: "Notification emails buffered before new ones are dropped"},

	// Sign-in throttling (0 disables a limit)
	{Name: "login_max_per_ip", Default: 10, Desc: "Sign-in attempts allowed per client IP per minute"},
	{Name: "login_max_per_email", Default: 5, Desc: "Sign-in attempts allowed per account per 5 minutes"},

	// Links and language
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for record links in notifications"},
	{Name: "default_lang", Default: "en-US", Desc: "Notification language for users without one"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_activity", Default: "all", Desc: "Activity and team event logging: 'all', 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Security event logging: 'all', 'db', 'log', or 'off'"},

	// Bootstrap accounts
	{Name: "system_email", Default: "system@localhost", Desc: "Email of the system account owning automated activities"},
	{Name: "admin_email", Default: "", Desc: "Email of a user to promote/create as admin on startup"},
}

var auditModes = map[string]bool{"": true, "all": true, "db": true, "log": true, "off": true}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ACTIVITYTEAMS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ACTIVITYTEAMS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Email/SMTP
		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		MailQueueSize: appValues.Int("mail_queue_size"),

		LoginMaxPerIP:    appValues.Int("login_max_per_ip"),
		LoginMaxPerEmail: appValues.Int("login_max_per_email"),

		BaseURL:     appValues.String("base_url"),
		DefaultLang: appValues.String("default_lang"),

		// Audit logging
		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogActivity: appValues.String("audit_log_activity"),
		AuditLogSecurity: appValues.String("audit_log_security"),

		SystemEmail: appValues.String("system_email"),
		AdminEmail:  appValues.String("admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked to catch configuration errors before
// attempting to connect, and the default notification language must be a
// valid language tag.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.LoginMaxPerIP < 0 || appCfg.LoginMaxPerEmail < 0 {
		return fmt.Errorf("login limits must not be negative")
	}
	if _, err := language.Parse(strings.ReplaceAll(appCfg.DefaultLang, "_", "-")); err != nil {
		return fmt.Errorf("invalid default_lang %q: %w", appCfg.DefaultLang, err)
	}
	for key, v := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_activity": appCfg.AuditLogActivity,
		"audit_log_security": appCfg.AuditLogSecurity,
	} {
		if !auditModes[v] {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be changed in production")
	}
	return nil
}
