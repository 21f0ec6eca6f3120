package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/status"
	"github.com/dalemusser/activityteams/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c           *mongo.Collection
	partners    *mongo.Collection
	memberships *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("users"),
		partners:    db.Collection("partners"),
		memberships: db.Collection("activity_team_members"),
	}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrAccessDenied is returned when the acting user may not read another user's partner.
	ErrAccessDenied = errors.New("access denied to user partner")
	// ErrNoPartner is returned when a user has no partner identity.
	ErrNoPartner = errors.New("user has no partner")

	errBadRole   = errors.New(`role must be "admin"|"user"`)
	errBadStatus = errors.New(`status must be "active"|"disabled"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany loads users by ID, archived ones included. Missing IDs are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and its partner identity.
// When password is non-empty the user signs in with it; otherwise auth is "trust".
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = strings.TrimSpace(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalizeEmail(u.Email)
	if u.Status == "" {
		u.Status = status.Active
	}
	if u.Role == "" {
		u.Role = "user"
	}
	if u.Role != "admin" && u.Role != "user" {
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	u.AuthMethod = "trust"
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
		u.AuthMethod = "password"
	}

	now := time.Now().UTC()
	if u.PartnerID == nil {
		p := models.Partner{ID: primitive.NewObjectID(), Name: u.FullName, Email: u.Email, CreatedAt: now}
		if _, err := s.partners.InsertOne(ctx, p); err != nil {
			return models.User{}, err
		}
		u.PartnerID = &p.ID
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// CheckPassword verifies a password-auth user's password. Trust users always pass.
func CheckPassword(u *models.User, password string) bool {
	if u.AuthMethod != "password" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetStatus archives (disabled) or restores (active) a user.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, stat string) error {
	if !status.IsValid(stat) {
		return errBadStatus
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": stat, "updated_at": time.Now().UTC()}})
	return err
}

// GetPartner loads a partner identity.
func (s *Store) GetPartner(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	var p models.Partner
	if err := s.partners.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PartnerIDAs returns userID's partner as seen by the acting user.
//
// A user may read their own partner, the partner of anyone they share a team
// with, and admins may read any partner. Everything else is ErrAccessDenied.
func (s *Store) PartnerIDAs(ctx context.Context, a actor.Actor, userID primitive.ObjectID) (primitive.ObjectID, error) {
	ok, err := s.canRead(ctx, a, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !ok {
		return primitive.NilObjectID, ErrAccessDenied
	}
	return s.PartnerIDElevated(ctx, userID)
}

// PartnerIDElevated returns userID's partner without an access check.
// Callers must log the elevation.
func (s *Store) PartnerIDElevated(ctx context.Context, userID primitive.ObjectID) (primitive.ObjectID, error) {
	var u models.User
	opts := options.FindOne().SetProjection(bson.M{"partner_id": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&u); err != nil {
		return primitive.NilObjectID, err
	}
	if u.PartnerID == nil {
		return primitive.NilObjectID, ErrNoPartner
	}
	return *u.PartnerID, nil
}

func (s *Store) canRead(ctx context.Context, a actor.Actor, userID primitive.ObjectID) (bool, error) {
	if a.IsAdmin() || a.ID == userID {
		return true, nil
	}

	teamIDs, err := s.memberships.Distinct(ctx, "team_id", bson.M{"user_id": a.ID})
	if err != nil {
		return false, err
	}
	if len(teamIDs) == 0 {
		return false, nil
	}
	n, err := s.memberships.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"team_id": bson.M{"$in": teamIDs},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
