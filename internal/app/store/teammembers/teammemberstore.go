// internal/app/store/teammembers/teammemberstore.go
package teammemberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/activityteams/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
	teams *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("activity_team_members"),
		users: db.Collection("users"),
		teams: db.Collection("activity_teams"),
	}
}

var ErrDuplicateMembership = errors.New("user is already a member of this team")

// Add creates a membership after checking that both team and user exist.
func (s *Store) Add(ctx context.Context, teamID, userID primitive.ObjectID) error {
	if err := s.teams.FindOne(ctx, bson.M{"_id": teamID}).Err(); err != nil {
		return err
	}
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Err(); err != nil {
		return err
	}

	doc := models.TeamMembership{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (teamID, userID).
func (s *Store) Remove(ctx context.Context, teamID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"team_id": teamID, "user_id": userID})
	return err
}

// DeleteByTeam removes all memberships for a team.
// Returns the number of documents deleted.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Exists checks if a membership exists for the given team and user,
// regardless of whether the user is archived.
func (s *Store) Exists(ctx context.Context, teamID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TeamIDsForUser returns the IDs of every team userID belongs to.
func (s *Store) TeamIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().SetProjection(bson.M{"team_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			TeamID primitive.ObjectID `bson:"team_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.TeamID)
	}
	return ids, cur.Err()
}

// UserIDs returns the members of a team in the order they joined.
// Archived users are only included when includeInactive is set.
func (s *Store) UserIDs(ctx context.Context, teamID primitive.ObjectID, includeInactive bool) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"user_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.UserID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if includeInactive || len(ids) == 0 {
		return ids, nil
	}

	active, err := s.users.Distinct(ctx, "_id", bson.M{
		"_id":    bson.M{"$in": ids},
		"status": bson.M{"$ne": "disabled"},
	})
	if err != nil {
		return nil, err
	}
	keep := make(map[primitive.ObjectID]bool, len(active))
	for _, v := range active {
		if id, ok := v.(primitive.ObjectID); ok {
			keep[id] = true
		}
	}
	out := ids[:0]
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// CountByTeam returns the number of memberships for a team.
func (s *Store) CountByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"team_id": teamID})
}
