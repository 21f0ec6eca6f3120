package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user together with its partner identity.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, "user", "active")
}

// CreateAdmin creates an active admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, "admin", "active")
}

// CreateArchivedUser creates a disabled user, as left behind by a deactivated account.
func (f *Fixtures) CreateArchivedUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, "user", "disabled")
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, role, stat string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	partner := models.Partner{
		ID:        primitive.NewObjectID(),
		Name:      fullName,
		Email:     email,
		CreatedAt: now,
	}
	if _, err := f.db.Collection("partners").InsertOne(ctx, partner); err != nil {
		f.t.Fatalf("failed to create test partner: %v", err)
	}

	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "trust",
		Role:       role,
		Status:     stat,
		PartnerID:  &partner.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTeam creates a team limited to resModels (none = all models).
func (f *Fixtures) CreateTeam(ctx context.Context, name string, defaultUser *primitive.ObjectID, resModels ...string) models.Team {
	f.t.Helper()

	if resModels == nil {
		resModels = []string{}
	}
	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		UserID:    defaultUser,
		ResModels: resModels,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("activity_teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// AddTeamMember links a user to a team.
func (f *Fixtures) AddTeamMember(ctx context.Context, teamID, userID primitive.ObjectID) models.TeamMembership {
	f.t.Helper()

	m := models.TeamMembership{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("activity_team_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test team membership: %v", err)
	}
	return m
}

// CreateRecord creates a business record activities can attach to.
func (f *Fixtures) CreateRecord(ctx context.Context, resModel, displayName string, responsible *primitive.ObjectID) models.Record {
	f.t.Helper()

	rec := models.Record{
		ID:                primitive.NewObjectID(),
		ResModel:          resModel,
		DisplayName:       displayName,
		ResponsibleUserID: responsible,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := f.db.Collection("records").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test record: %v", err)
	}
	return rec
}
