package activities

import (
	"context"
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/notify"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// world is an in-memory backend for every store the service uses.
type world struct {
	users      map[primitive.ObjectID]models.User
	teams      []models.Team
	members    map[primitive.ObjectID][]primitive.ObjectID
	records    map[primitive.ObjectID]models.Record
	types      map[primitive.ObjectID]models.ActivityType
	activities map[primitive.ObjectID]models.Activity
	messages   []models.Message
	followers  map[primitive.ObjectID][]primitive.ObjectID // res_id -> partners

	elevated    int
	replaced    int
	failNotices bool
}

func newWorld() *world {
	return &world{
		users:      map[primitive.ObjectID]models.User{},
		members:    map[primitive.ObjectID][]primitive.ObjectID{},
		records:    map[primitive.ObjectID]models.Record{},
		types:      map[primitive.ObjectID]models.ActivityType{},
		activities: map[primitive.ObjectID]models.Activity{},
		followers:  map[primitive.ObjectID][]primitive.ObjectID{},
	}
}

func (w *world) addUser(name, lang string, active bool) models.User {
	pid := primitive.NewObjectID()
	u := models.User{ID: primitive.NewObjectID(), FullName: name, Email: name + "@example.com", Lang: lang, Role: "user", Status: "active", PartnerID: &pid}
	if !active {
		u.Status = "disabled"
	}
	w.users[u.ID] = u
	return u
}

func (w *world) addTeam(name string, defaultUser *primitive.ObjectID, resModels []string, members ...models.User) models.Team {
	t := models.Team{ID: primitive.NewObjectID(), Name: name, UserID: defaultUser, ResModels: resModels, Status: "active"}
	w.teams = append(w.teams, t)
	for _, m := range members {
		w.members[t.ID] = append(w.members[t.ID], m.ID)
	}
	return t
}

func (w *world) addRecord(model, name string, responsible *primitive.ObjectID) models.Record {
	r := models.Record{ID: primitive.NewObjectID(), ResModel: model, DisplayName: name, ResponsibleUserID: responsible}
	w.records[r.ID] = r
	return r
}

func (w *world) partnerOf(u models.User) primitive.ObjectID { return *u.PartnerID }

func (w *world) notificationsTo(partner primitive.ObjectID) []models.Message {
	var out []models.Message
	for _, m := range w.messages {
		if m.Kind != models.MessageNotification {
			continue
		}
		for _, p := range m.PartnerIDs {
			if p == partner {
				out = append(out, m)
			}
		}
	}
	return out
}

func (w *world) countKind(kind string) int {
	n := 0
	for _, m := range w.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func (w *world) follows(resID, partner primitive.ObjectID) bool {
	for _, p := range w.followers[resID] {
		if p == partner {
			return true
		}
	}
	return false
}

// --- ActivityStore ---

func (w *world) InsertMany(_ context.Context, acts []models.Activity) ([]models.Activity, error) {
	out := make([]models.Activity, len(acts))
	for i, a := range acts {
		a.ID = primitive.NewObjectID()
		if a.State == "" {
			a.State = models.ActivityPlanned
		}
		w.activities[a.ID] = a
		out[i] = a
	}
	return out, nil
}

func (w *world) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.Activity, error) {
	var out []models.Activity
	for _, id := range ids {
		if a, ok := w.activities[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (w *world) Replace(_ context.Context, acts []models.Activity) error {
	w.replaced++
	for _, a := range acts {
		w.activities[a.ID] = a
	}
	return nil
}

func (w *world) MarkDone(_ context.Context, id primitive.ObjectID, feedback string, at time.Time) error {
	a := w.activities[id]
	a.State = models.ActivityDone
	a.Feedback = feedback
	a.DoneAt = &at
	w.activities[id] = a
	return nil
}

func (w *world) GetType(_ context.Context, id primitive.ObjectID) (models.ActivityType, error) {
	t, ok := w.types[id]
	if !ok {
		return models.ActivityType{}, mongo.ErrNoDocuments
	}
	return t, nil
}

// --- users: UserStore ---

type userView struct{ *world }

func (v userView) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := map[primitive.ObjectID]models.User{}
	for _, id := range ids {
		if u, ok := v.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (v userView) PartnerIDAs(ctx context.Context, a actor.Actor, userID primitive.ObjectID) (primitive.ObjectID, error) {
	if !a.IsAdmin() && a.ID != userID && !v.shareTeam(a.ID, userID) {
		return primitive.NilObjectID, userstore.ErrAccessDenied
	}
	return v.partner(userID)
}

func (v userView) PartnerIDElevated(_ context.Context, userID primitive.ObjectID) (primitive.ObjectID, error) {
	v.elevated++
	return v.partner(userID)
}

func (v userView) partner(userID primitive.ObjectID) (primitive.ObjectID, error) {
	u, ok := v.users[userID]
	if !ok {
		return primitive.NilObjectID, mongo.ErrNoDocuments
	}
	if u.PartnerID == nil {
		return primitive.NilObjectID, userstore.ErrNoPartner
	}
	return *u.PartnerID, nil
}

func (v userView) shareTeam(a, b primitive.ObjectID) bool {
	for _, ms := range v.members {
		if containsID(ms, a) && containsID(ms, b) {
			return true
		}
	}
	return false
}

// --- RecordStore ---

func (w *world) Get(_ context.Context, resModel string, resID primitive.ObjectID) (models.Record, error) {
	r, ok := w.records[resID]
	if !ok || r.ResModel != resModel {
		return models.Record{}, mongo.ErrNoDocuments
	}
	return r, nil
}

func (w *world) DescribeModel(_ context.Context, model string) (string, error) {
	switch model {
	case "crm.lead":
		return "Lead", nil
	case "helpdesk.ticket":
		return "Ticket", nil
	}
	return model, nil
}

// --- teams: TeamReader ---

type teamView struct{ *world }

func (v teamView) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Team, error) {
	out := map[primitive.ObjectID]models.Team{}
	for _, t := range v.teams {
		if containsID(ids, t.ID) {
			out[t.ID] = t
		}
	}
	return out, nil
}

// --- Thread ---

func (w *world) Post(_ context.Context, m models.Message) (models.Message, error) {
	if w.failNotices && m.Kind == models.MessageNotification {
		return models.Message{}, errors.New("mail gateway down")
	}
	m.ID = primitive.NewObjectID()
	w.messages = append(w.messages, m)
	return m, nil
}

func (w *world) Subscribe(_ context.Context, _ string, resID, partnerID primitive.ObjectID) error {
	if !containsID(w.followers[resID], partnerID) {
		w.followers[resID] = append(w.followers[resID], partnerID)
	}
	return nil
}

// --- teamassign.Directory ---

type dirView struct{ *world }

func (v dirView) Team(_ context.Context, id primitive.ObjectID) (models.Team, error) {
	for _, t := range v.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Team{}, mongo.ErrNoDocuments
}

func (v dirView) TeamMemberIDs(_ context.Context, teamID primitive.ObjectID, includeInactive bool) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, id := range v.members[teamID] {
		if includeInactive || v.users[id].IsActive() {
			out = append(out, id)
		}
	}
	return out, nil
}

func (v dirView) UserTeamIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, t := range v.teams {
		if containsID(v.members[t.ID], userID) {
			out = append(out, t.ID)
		}
	}
	return out, nil
}

func (v dirView) FirstTeamForModel(_ context.Context, teamIDs []primitive.ObjectID, resModel string) (models.Team, bool, error) {
	for _, t := range v.teams {
		if containsID(teamIDs, t.ID) && t.IsActive() && t.AppliesTo(resModel) {
			return t, true, nil
		}
	}
	return models.Team{}, false, nil
}

func (v dirView) TeamsForModel(_ context.Context, resModel string) ([]models.Team, error) {
	var out []models.Team
	for _, t := range v.teams {
		if t.IsActive() && t.AppliesTo(resModel) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v dirView) UserName(_ context.Context, id primitive.ObjectID) (string, error) {
	return v.users[id].FullName, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, w *world) *Service {
	t.Helper()
	renderer, err := notify.NewRenderer("en")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	logger := zap.NewNop()
	return New(Deps{
		Activities: w,
		Users:      userView{w},
		Records:    w,
		Teams:      teamView{w},
		Thread:     w,
		Engine:     teamassign.New(dirView{w}, logger),
		Router:     notify.NewRouter(renderer, w, logger, notify.Options{BaseURL: "https://app.example.com"}),
		Logger:     logger,
	})
}

func as(u models.User) actor.Actor {
	return actor.Actor{ID: u.ID, Name: u.FullName, Role: u.Role, Lang: u.Lang}
}

func ref(id primitive.ObjectID) *primitive.ObjectID { return &id }
