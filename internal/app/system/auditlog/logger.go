// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/activityteams/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each setting is one of "all" (MongoDB + zap), "db" (MongoDB only),
// "log" (zap only) or "off".
type Config struct {
	// Auth covers login and logout.
	Auth string
	// Activity covers activity and team changes.
	Activity string
	// Security covers privilege elevation and rejected assignments.
	Security string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ActivityID != nil {
		fields = append(fields, zap.String("activity_id", event.ActivityID.Hex()))
	}
	if event.TeamID != nil {
		fields = append(fields, zap.String("team_id", event.TeamID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryActivity:
		return l.config.Activity
	case audit.CategorySecurity:
		return l.config.Security
	}
	return "all"
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"auth_method": authMethod, "email": email},
	})
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "user not found",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedUserDisabled logs a login attempt by an archived user.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "user disabled",
		Details:       map[string]string{"email": email},
	})
}

// LoginRateLimited logs a login attempt refused by the attempt limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email, scope string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "rate limited",
		Details:       map[string]string{"email": email, "scope": scope},
	})
}

// Logout logs a logout. userIDStr may be empty or invalid for stale sessions.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		event.UserID = &oid
	}
	l.Log(ctx, event)
}

// --- Activity Events ---

// ActivityCreated logs a new activity and who it went to.
func (l *Logger) ActivityCreated(ctx context.Context, actorID, activityID primitive.ObjectID, teamID, assigneeID *primitive.ObjectID, resModel string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryActivity,
		EventType:  audit.EventActivityCreated,
		ActorID:    &actorID,
		UserID:     assigneeID,
		ActivityID: &activityID,
		TeamID:     teamID,
		Success:    true,
		Details:    map[string]string{"res_model": resModel},
	})
}

// ActivityReassigned logs a change of assigned team member.
// previousPartners lists the partners of the assignees before the change.
func (l *Logger) ActivityReassigned(ctx context.Context, actorID, activityID primitive.ObjectID, teamID, newAssignee *primitive.ObjectID, previousPartners []primitive.ObjectID) {
	details := map[string]string{}
	if len(previousPartners) > 0 {
		details["previous_partner_ids"] = joinHex(previousPartners)
	}
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryActivity,
		EventType:  audit.EventActivityReassigned,
		ActorID:    &actorID,
		UserID:     newAssignee,
		ActivityID: &activityID,
		TeamID:     teamID,
		Success:    true,
		Details:    details,
	})
}

// ActivityDone logs an activity being marked done.
func (l *Logger) ActivityDone(ctx context.Context, actorID, activityID primitive.ObjectID, teamID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryActivity,
		EventType:  audit.EventActivityDone,
		ActorID:    &actorID,
		ActivityID: &activityID,
		TeamID:     teamID,
		Success:    true,
	})
}

// TeamCreated logs a new team.
func (l *Logger) TeamCreated(ctx context.Context, actorID, teamID primitive.ObjectID, teamName string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamCreated,
		ActorID:   &actorID,
		TeamID:    &teamID,
		Success:   true,
		Details:   map[string]string{"team_name": teamName},
	})
}

// TeamUpdated logs a team change. fieldsChanged is a comma separated list.
func (l *Logger) TeamUpdated(ctx context.Context, actorID, teamID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamUpdated,
		ActorID:   &actorID,
		TeamID:    &teamID,
		Success:   true,
		Details:   map[string]string{"fields_changed": fieldsChanged},
	})
}

// TeamDeleted logs a deleted team.
func (l *Logger) TeamDeleted(ctx context.Context, actorID, teamID primitive.ObjectID, teamName string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamDeleted,
		ActorID:   &actorID,
		TeamID:    &teamID,
		Success:   true,
		Details:   map[string]string{"team_name": teamName},
	})
}

// TeamMemberAdded logs a user joining a team.
func (l *Logger) TeamMemberAdded(ctx context.Context, actorID, teamID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamMemberAdded,
		ActorID:   &actorID,
		TeamID:    &teamID,
		UserID:    &userID,
		Success:   true,
	})
}

// TeamMemberRemoved logs a user leaving a team.
func (l *Logger) TeamMemberRemoved(ctx context.Context, actorID, teamID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamMemberRemoved,
		ActorID:   &actorID,
		TeamID:    &teamID,
		UserID:    &userID,
		Success:   true,
	})
}

// --- Security Events ---

// PrivilegeElevated logs a read that bypassed the actor's access rights.
func (l *Logger) PrivilegeElevated(ctx context.Context, actorID, userID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		EventType: audit.EventPrivilegeElevated,
		ActorID:   &actorID,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"reason": reason},
	})
}

// AssignationDenied logs an assignment rejected by the access check.
func (l *Logger) AssignationDenied(ctx context.Context, actorID, activityID, assigneeID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAssignationDenied,
		ActorID:       &actorID,
		UserID:        &assigneeID,
		ActivityID:    &activityID,
		FailureReason: reason,
	})
}

// ConsistencyRejected logs a write refused because the assignee is not a
// member of the activity's team.
func (l *Logger) ConsistencyRejected(ctx context.Context, actorID, activityID, assigneeID, teamID primitive.ObjectID, message string) {
	event := audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventConsistencyRejected,
		ActorID:       &actorID,
		UserID:        &assigneeID,
		TeamID:        &teamID,
		FailureReason: message,
	}
	if !activityID.IsZero() {
		event.ActivityID = &activityID
	}
	l.Log(ctx, event)
}

func joinHex(ids []primitive.ObjectID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Hex()
	}
	return strings.Join(parts, ",")
}
