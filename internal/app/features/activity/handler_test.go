package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/activityteams/internal/app/features/activity"
	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/activityteams/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeService records what the handlers pass in and replays canned results.
type fakeService struct {
	actor    actor.Actor
	created  []models.Activity
	ids      []primitive.ObjectID
	update   activities.Update
	opts     activities.WriteOptions
	feedback string
	resModel string
	draft    models.Activity

	result []models.Activity
	err    error
	team   *models.Team
	users  teamassign.UserDomain
	teams  teamassign.TeamDomain
	format []activities.Formatted
}

func (f *fakeService) Create(_ context.Context, a actor.Actor, input []models.Activity) ([]models.Activity, error) {
	f.actor, f.created = a, input
	return f.result, f.err
}

func (f *fakeService) Write(_ context.Context, a actor.Actor, ids []primitive.ObjectID, upd activities.Update, opts activities.WriteOptions) ([]models.Activity, error) {
	f.actor, f.ids, f.update, f.opts = a, ids, upd, opts
	return f.result, f.err
}

func (f *fakeService) SetAssignedTeamMember(_ context.Context, a actor.Actor, ids []primitive.ObjectID) ([]models.Activity, error) {
	f.actor, f.ids = a, ids
	return f.result, f.err
}

func (f *fakeService) MarkDone(_ context.Context, a actor.Actor, ids []primitive.ObjectID, feedback string) ([]models.Activity, error) {
	f.actor, f.ids, f.feedback = a, ids, feedback
	return f.result, f.err
}

func (f *fakeService) Format(_ context.Context, ids []primitive.ObjectID) ([]activities.Formatted, error) {
	f.ids = ids
	return f.format, f.err
}

func (f *fakeService) DefaultTeam(_ context.Context, a actor.Actor, resModel string) (*models.Team, error) {
	f.actor, f.resModel = a, resModel
	return f.team, f.err
}

func (f *fakeService) OnTeamChanged(_ context.Context, draft *models.Activity) (teamassign.UserDomain, error) {
	f.draft = *draft
	draft.AssignedTeamMember = f.draft.UserID
	return f.users, f.err
}

func (f *fakeService) OnMemberChanged(_ context.Context, draft *models.Activity) (teamassign.TeamDomain, error) {
	f.draft = *draft
	return f.teams, f.err
}

var testUserID = primitive.NewObjectID()

func signedIn(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:   testUserID.Hex(),
		Name: "Anna",
		Role: "user",
		Lang: "hu_HU",
	})
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return signedIn(req)
}

func TestHandleCreate_PassesActorAndDrafts(t *testing.T) {
	recID, teamID := primitive.NewObjectID(), primitive.NewObjectID()
	svc := &fakeService{result: []models.Activity{{ID: primitive.NewObjectID()}}}
	h := activity.NewHandler(svc, zap.NewNop())

	body := `{"activities":[{"res_model":"crm.lead","res_id":"` + recID.Hex() + `",` +
		`"summary":"Call back","date_deadline":"2026-10-20","team_id":"` + teamID.Hex() + `","assigned_team_member":""}]}`
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest("POST", "/activities", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if svc.actor.ID != testUserID || svc.actor.Lang != "hu_HU" {
		t.Errorf("actor not taken from session: %+v", svc.actor)
	}
	if len(svc.created) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(svc.created))
	}
	got := svc.created[0]
	if got.TeamID == nil || *got.TeamID != teamID {
		t.Errorf("team not passed through: %v", got.TeamID)
	}
	if got.AssignedTeamMember != nil {
		t.Errorf("empty member should be nil, got %v", got.AssignedTeamMember)
	}
	if want := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC); !got.DateDeadline.Equal(want) {
		t.Errorf("deadline: got %v, want %v", got.DateDeadline, want)
	}
}

func TestHandleCreate_RejectsEmptyBatch(t *testing.T) {
	h := activity.NewHandler(&fakeService{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest("POST", "/activities", `{"activities":[]}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleCreate_BadDeadline(t *testing.T) {
	h := activity.NewHandler(&fakeService{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest("POST", "/activities", `{"activities":[{"date_deadline":"next week"}]}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleCreate_ValidationErrorIs422(t *testing.T) {
	svc := &fakeService{err: &teamassign.ValidationError{UserName: "Béla", TeamName: "Sales"}}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonRequest("POST", "/activities",
		`{"activities":[{"res_model":"crm.lead","res_id":"`+primitive.NewObjectID().Hex()+`"}]}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not member of the team Sales") {
		t.Errorf("message missing: %s", rec.Body.String())
	}
}

func TestHandleWrite_ClearVersusUnchanged(t *testing.T) {
	svc := &fakeService{result: []models.Activity{}}
	h := activity.NewHandler(svc, zap.NewNop())

	id := primitive.NewObjectID()
	body := `{"ids":["` + id.Hex() + `"],"quick_update":true,"assigned_team_member":"","summary":"New"}`
	rec := httptest.NewRecorder()
	h.HandleWrite(rec, jsonRequest("PATCH", "/activities", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !svc.opts.QuickUpdate {
		t.Error("quick_update not passed")
	}
	if svc.update.AssignedTeamMember == nil || !svc.update.AssignedTeamMember.IsZero() {
		t.Errorf("empty member should be a clear, got %v", svc.update.AssignedTeamMember)
	}
	if svc.update.TeamID != nil {
		t.Errorf("absent team should stay unchanged, got %v", svc.update.TeamID)
	}
	if svc.update.Summary == nil || *svc.update.Summary != "New" {
		t.Errorf("summary not passed: %v", svc.update.Summary)
	}
	if diff := cmp.Diff([]primitive.ObjectID{id}, svc.ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleWrite_DeniedIs403(t *testing.T) {
	svc := &fakeService{err: activities.ErrAssignationDenied}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleWrite(rec, jsonRequest("PATCH", "/activities",
		`{"ids":["`+primitive.NewObjectID().Hex()+`"],"assigned_team_member":"`+primitive.NewObjectID().Hex()+`"}`))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleAssignMe(t *testing.T) {
	svc := &fakeService{result: []models.Activity{{}}}
	h := activity.NewHandler(svc, zap.NewNop())

	id := primitive.NewObjectID()
	req := testutil.WithChiURLParam(signedIn(httptest.NewRequest("POST", "/activities/x/assign-me", nil)), "id", id.Hex())
	rec := httptest.NewRecorder()
	h.HandleAssignMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if len(svc.ids) != 1 || svc.ids[0] != id || svc.actor.ID != testUserID {
		t.Errorf("unexpected call: ids=%v actor=%v", svc.ids, svc.actor.ID)
	}
}

func TestHandleDone_CommittedWithWarning(t *testing.T) {
	done := []models.Activity{{ID: primitive.NewObjectID(), State: models.ActivityDone}}
	svc := &fakeService{result: done, err: errors.New("smtp down")}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleDone(rec, jsonRequest("POST", "/activities/done",
		`{"ids":["`+done[0].ID.Hex()+`"],"feedback":"Called, all good"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	var resp struct {
		Activities []models.Activity `json:"activities"`
		Warning    string            `json:"warning"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Warning != "smtp down" || len(resp.Activities) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if svc.feedback != "Called, all good" {
		t.Errorf("feedback: got %q", svc.feedback)
	}
}

func TestHandleDone_NotFound(t *testing.T) {
	svc := &fakeService{err: activities.ErrActivityNotFound}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleDone(rec, jsonRequest("POST", "/activities/done", `{"ids":["`+primitive.NewObjectID().Hex()+`"]}`))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServeFormat_ParsesIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	svc := &fakeService{format: []activities.Formatted{{ID: a, TeamName: "Sales", AssignedTeamMember: "Anna"}}}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeFormat(rec, signedIn(httptest.NewRequest("GET", "/activities/format?ids="+a.Hex()+","+b.Hex(), nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if diff := cmp.Diff([]primitive.ObjectID{a, b}, svc.ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	var got []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[0]["team_name"] != "Sales" || got[0]["assigned_team_member"] != "Anna" {
		t.Errorf("unexpected projection: %v", got[0])
	}
}

func TestServeFormat_BadID(t *testing.T) {
	h := activity.NewHandler(&fakeService{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.ServeFormat(rec, signedIn(httptest.NewRequest("GET", "/activities/format?ids=nope", nil)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServeDefaultTeam_NullWhenNone(t *testing.T) {
	svc := &fakeService{}
	h := activity.NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeDefaultTeam(rec, signedIn(httptest.NewRequest("GET", "/activities/default-team?res_model=crm.lead", nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if svc.resModel != "crm.lead" {
		t.Errorf("res_model: got %q", svc.resModel)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"team":null}` {
		t.Errorf("body: got %s", rec.Body.String())
	}
}

func TestHandleTeamChanged_ReturnsDraftAndDomain(t *testing.T) {
	teamID, userID := primitive.NewObjectID(), primitive.NewObjectID()
	svc := &fakeService{users: teamassign.UserDomain{Restricted: true, UserIDs: []primitive.ObjectID{userID}}}
	h := activity.NewHandler(svc, zap.NewNop())

	body := `{"res_model":"crm.lead","team_id":"` + teamID.Hex() + `","user_id":"` + userID.Hex() + `"}`
	rec := httptest.NewRecorder()
	h.HandleTeamChanged(rec, jsonRequest("POST", "/activities/onchange/team", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var resp struct {
		Activity struct {
			AssignedTeamMember *primitive.ObjectID `json:"assigned_team_member"`
		} `json:"activity"`
		Domain teamassign.UserDomain `json:"domain"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Activity.AssignedTeamMember == nil || *resp.Activity.AssignedTeamMember != userID {
		t.Errorf("draft change not echoed: %v", resp.Activity.AssignedTeamMember)
	}
	if diff := cmp.Diff(svc.users, resp.Domain); diff != "" {
		t.Errorf("domain mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := activity.Routes(activity.NewHandler(&fakeService{}, zap.NewNop()), sm)

	req := httptest.NewRequest("POST", "/done", strings.NewReader(`{}`))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
