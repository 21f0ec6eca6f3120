// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages activities and activity types.
type Store struct {
	c     *mongo.Collection
	types *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("activities"),
		types: db.Collection("activity_types"),
	}
}

// EnsureIndexes creates the indexes activity queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Activities of a record (thread view)
		{
			Keys:    bson.D{{Key: "res_model", Value: 1}, {Key: "res_id", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index().SetName("idx_activity_record"),
		},
		// "My activities" for assignees
		{
			Keys:    bson.D{{Key: "assigned_team_member", Value: 1}, {Key: "date_deadline", Value: 1}},
			Options: options.Index().SetName("idx_activity_member"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date_deadline", Value: 1}},
			Options: options.Index().SetName("idx_activity_user"),
		},
		// Team queue
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "state", Value: 1}, {Key: "date_deadline", Value: 1}},
			Options: options.Index().SetName("idx_activity_team"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// InsertMany stores new activities, assigning IDs, state and timestamps.
// The returned slice is in input order.
func (s *Store) InsertMany(ctx context.Context, acts []models.Activity) ([]models.Activity, error) {
	if len(acts) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(acts))
	out := make([]models.Activity, len(acts))
	for i, a := range acts {
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		if a.State == "" {
			a.State = models.ActivityPlanned
		}
		if a.DateDeadline.IsZero() {
			a.DateDeadline = now
		}
		a.CreatedAt = now
		a.UpdatedAt = now
		out[i] = a
		docs = append(docs, a)
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one activity.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	var a models.Activity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// GetMany loads activities in the order of ids. Unknown IDs are skipped.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []models.Activity
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Activity, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	out := make([]models.Activity, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Replace writes the assignment and content fields of each activity back.
func (s *Store) Replace(ctx context.Context, acts []models.Activity) error {
	now := time.Now().UTC()
	for _, a := range acts {
		set := bson.M{
			"summary":       a.Summary,
			"note":          a.Note,
			"date_deadline": a.DateDeadline,
			"automated":     a.Automated,
			"updated_at":    now,
		}
		unset := bson.M{}
		setOrUnset(set, unset, "user_id", a.UserID)
		setOrUnset(set, unset, "team_id", a.TeamID)
		setOrUnset(set, unset, "assigned_team_member", a.AssignedTeamMember)
		setOrUnset(set, unset, "activity_type_id", a.ActivityTypeID)

		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		if _, err := s.c.UpdateByID(ctx, a.ID, update); err != nil {
			return err
		}
	}
	return nil
}

func setOrUnset(set, unset bson.M, key string, id *primitive.ObjectID) {
	if id == nil || id.IsZero() {
		unset[key] = ""
		return
	}
	set[key] = *id
}

// MarkDone archives an activity as done.
func (s *Store) MarkDone(ctx context.Context, id primitive.ObjectID, feedback string, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"state":      models.ActivityDone,
		"feedback":   feedback,
		"done_at":    at,
		"updated_at": at,
	}})
	return err
}

// DetachTeam drops a deleted team from every activity that referenced it.
// The assigned member stays on the activity.
func (s *Store) DetachTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"team_id": teamID}, bson.M{
		"$unset": bson.M{"team_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListByRecord returns the planned activities attached to a record, soonest first.
func (s *Store) ListByRecord(ctx context.Context, resModel string, resID primitive.ObjectID) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_deadline", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{
		"res_model": resModel,
		"res_id":    resID,
		"state":     models.ActivityPlanned,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var acts []models.Activity
	if err := cur.All(ctx, &acts); err != nil {
		return nil, err
	}
	return acts, nil
}

// CreateType stores an activity type.
func (s *Store) CreateType(ctx context.Context, t models.ActivityType) (models.ActivityType, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := s.types.InsertOne(ctx, t); err != nil {
		return models.ActivityType{}, err
	}
	return t, nil
}

// GetType loads an activity type.
func (s *Store) GetType(ctx context.Context, id primitive.ObjectID) (models.ActivityType, error) {
	var t models.ActivityType
	if err := s.types.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.ActivityType{}, err
	}
	return t, nil
}
