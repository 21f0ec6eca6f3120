// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything specific to team-based activity assignment:
// the MongoDB connection, session cookies, notification delivery and audit
// logging.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: activityteams-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Email/SMTP configuration for notification copies.
	// An empty MailSMTPHost keeps notifications on record threads only.
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailFrom      string
	MailFromName  string
	MailQueueSize int

	// Sign-in throttling. A zero limit disables it.
	LoginMaxPerIP    int // per client IP per minute
	LoginMaxPerEmail int // per account per 5 minutes

	// Base URL for record links in notifications
	BaseURL string // e.g., "https://crm.example.com" or "http://localhost:3000"

	// DefaultLang renders notifications for recipients without a language.
	DefaultLang string

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth     string
	AuditLogActivity string
	AuditLogSecurity string

	// SystemEmail is the address of the system account that owns
	// automated activities.
	SystemEmail string
	// AdminEmail, when set, is promoted to (or created as) an admin on startup.
	AdminEmail string
}
