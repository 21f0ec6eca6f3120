package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/activityteams/internal/app/store/audit"
	"github.com/dalemusser/activityteams/internal/app/system/auditlog"
	"github.com/dalemusser/activityteams/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "password", "a@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.PrivilegeElevated(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "partner read")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Activity: "off", Security: "off"})

	userID := primitive.NewObjectID()
	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigLogSkipsDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Activity: "log"})

	actorID, activityID := primitive.NewObjectID(), primitive.NewObjectID()
	logger.ActivityDone(ctx, actorID, activityID, nil)

	events, err := store.GetByActivity(ctx, activityID, 10)
	if err != nil {
		t.Fatalf("GetByActivity failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no stored events when config is 'log'")
	}
}

func TestLogger_Log_EmptyConfigMeansAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})

	actorID, userID := primitive.NewObjectID(), primitive.NewObjectID()
	logger.PrivilegeElevated(ctx, actorID, userID, "partner read")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != audit.CategorySecurity || events[0].EventType != audit.EventPrivilegeElevated {
		t.Errorf("unexpected event: %+v", events[0])
	}
	if events[0].Details["reason"] != "partner read" {
		t.Errorf("reason = %q", events[0].Details["reason"])
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("User-Agent", "TestBrowser/1.0")
	userID := primitive.NewObjectID()
	logger.LoginSuccess(ctx, req, userID, "password", "ann@example.com")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if !e.Success || e.EventType != audit.EventLoginSuccess {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.UserAgent != "TestBrowser/1.0" {
		t.Errorf("user agent = %q", e.UserAgent)
	}
	if e.Details["auth_method"] != "password" || e.Details["email"] != "ann@example.com" {
		t.Errorf("details = %v", e.Details)
	}
}

func TestLogger_Logout_InvalidID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	logger.Logout(ctx, httptest.NewRequest("POST", "/logout", nil), "invalid-hex")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventLogout})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 logout event, got %d", n)
	}
}

func TestLogger_ActivityReassigned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Activity: "db"})

	actorID, activityID, teamID, assignee := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
	logger.ActivityReassigned(ctx, actorID, activityID, &teamID, &assignee, []primitive.ObjectID{p1, p2})

	events, err := store.GetByActivity(ctx, activityID, 10)
	if err != nil {
		t.Fatalf("GetByActivity failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.TeamID == nil || *e.TeamID != teamID || e.UserID == nil || *e.UserID != assignee {
		t.Errorf("unexpected ids: %+v", e)
	}
	if want := p1.Hex() + "," + p2.Hex(); e.Details["previous_partner_ids"] != want {
		t.Errorf("previous partners = %q, want %q", e.Details["previous_partner_ids"], want)
	}
}

func TestLogger_CategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Activity: "db", Security: "off"})

	actorID, teamID := primitive.NewObjectID(), primitive.NewObjectID()
	logger.LoginSuccess(ctx, nil, actorID, "trust", "a@example.com")
	logger.TeamCreated(ctx, actorID, teamID, "Sales")
	logger.AssignationDenied(ctx, actorID, primitive.NewObjectID(), primitive.NewObjectID(), "archived")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the team event, got %d events", n)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"x-forwarded-for", "X-Forwarded-For", "10.0.0.1, 10.0.0.2", "10.0.0.1"},
		{"x-real-ip", "X-Real-IP", "10.0.0.9", "10.0.0.9"},
		{"remote addr", "", "", "192.0.2.1:1234"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
			req := httptest.NewRequest("POST", "/login", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			userID := primitive.NewObjectID()
			logger.LoginSuccess(ctx, req, userID, "password", "a@example.com")

			events, err := store.GetByUser(ctx, userID, 1)
			if err != nil || len(events) != 1 {
				t.Fatalf("GetByUser: %v (%d events)", err, len(events))
			}
			if events[0].IP != tc.want {
				t.Errorf("ip = %q, want %q", events[0].IP, tc.want)
			}
		})
	}
}
