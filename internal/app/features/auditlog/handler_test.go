package auditlog_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/activityteams/internal/app/features/auditlog"
	"github.com/dalemusser/activityteams/internal/app/store/audit"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/activityteams/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	router chi.Router
	fx     *testutil.Fixtures
	store  *audit.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return testEnv{
		router: auditlog.Routes(auditlog.NewHandler(db, zap.NewNop()), sm),
		fx:     testutil.NewFixtures(t, db),
		store:  audit.New(db),
	}
}

func (e testEnv) get(t *testing.T, url string, u models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", url, nil)
	req.Header.Set("Accept", "application/json")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Role: u.Role})
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type listBody struct {
	Items []struct {
		EventType  string `json:"event_type"`
		Actor      string `json:"actor"`
		User       string `json:"user"`
		Team       string `json:"team"`
		ActivityID string `json:"activity_id"`
	} `json:"items"`
	Total     int64 `json:"total"`
	Start     int   `json:"start"`
	End       int   `json:"end"`
	NextStart int   `json:"next_start"`
	HasPrev   bool  `json:"has_prev"`
	HasNext   bool  `json:"has_next"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) listBody {
	t.Helper()
	var b listBody
	if err := json.NewDecoder(w.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func TestServeList_ResolvesNames(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := env.fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	anna := env.fx.CreateUser(ctx, "Anna", "anna@example.com")
	team := env.fx.CreateTeam(ctx, "Sales", nil)

	if err := env.store.Log(ctx, audit.Event{
		Category:  audit.CategoryActivity,
		EventType: audit.EventTeamMemberAdded,
		ActorID:   &admin.ID,
		UserID:    &anna.ID,
		TeamID:    &team.ID,
		Success:   true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	w := env.get(t, "/", admin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	b := decode(t, w)
	if len(b.Items) != 1 || b.Total != 1 {
		t.Fatalf("expected 1 item, got %d (total %d)", len(b.Items), b.Total)
	}
	it := b.Items[0]
	if it.Actor != "Admin" || it.User != "Anna" || it.Team != "Sales" {
		t.Errorf("names not resolved: %+v", it)
	}
}

func TestServeList_FiltersAndPages(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := env.fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 55; i++ {
		if err := env.store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := env.store.Log(ctx, audit.Event{Category: audit.CategorySecurity, EventType: audit.EventAssignationDenied}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	b := decode(t, env.get(t, "/?category=auth", admin))
	if b.Total != 55 || len(b.Items) != 50 || !b.HasNext || b.HasPrev {
		t.Fatalf("first page: total=%d items=%d next=%v prev=%v", b.Total, len(b.Items), b.HasNext, b.HasPrev)
	}
	if b.Start != 1 || b.End != 50 || b.NextStart != 51 {
		t.Errorf("first page range: %d-%d next %d", b.Start, b.End, b.NextStart)
	}

	b = decode(t, env.get(t, fmt.Sprintf("/?category=auth&start=%d", b.NextStart), admin))
	if len(b.Items) != 5 || b.HasNext || !b.HasPrev {
		t.Errorf("second page: items=%d next=%v prev=%v", len(b.Items), b.HasNext, b.HasPrev)
	}

	b = decode(t, env.get(t, "/?category=security&event_type=assignation_denied", admin))
	if len(b.Items) != 1 {
		t.Errorf("security filter: expected 1 item, got %d", len(b.Items))
	}
}

func TestServeList_BadParams(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := env.fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	for _, url := range []string{
		"/?category=billing",
		"/?category=auth&event_type=team_created",
		"/?user_id=nope",
		"/?start_date=yesterday",
		"/?start_date=2024-02-01&end_date=2024-01-01",
	} {
		t.Run(url, func(t *testing.T) {
			if w := env.get(t, url, admin); w.Code != http.StatusBadRequest {
				t.Errorf("expected %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestServeList_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := env.fx.CreateUser(ctx, "Anna", "anna@example.com")
	if w := env.get(t, "/", user); w.Code != http.StatusForbidden {
		t.Errorf("expected %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestServeActivityTrail(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := env.fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	activityID := primitive.NewObjectID()
	for _, et := range []string{audit.EventActivityCreated, audit.EventActivityDone} {
		if err := env.store.Log(ctx, audit.Event{Category: audit.CategoryActivity, EventType: et, ActivityID: &activityID, ActorID: &admin.ID}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	other := primitive.NewObjectID()
	if err := env.store.Log(ctx, audit.Event{Category: audit.CategoryActivity, EventType: audit.EventActivityCreated, ActivityID: &other}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	b := decode(t, env.get(t, "/activities/"+activityID.Hex(), admin))
	if len(b.Items) != 2 {
		t.Fatalf("expected 2 events, got %d", len(b.Items))
	}
	for _, it := range b.Items {
		if it.ActivityID != activityID.Hex() {
			t.Errorf("unexpected activity %s", it.ActivityID)
		}
	}

	if w := env.get(t, "/activities/xyz", admin); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}
