// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"time"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds record threads (messages) and their followers.
type Store struct {
	c         *mongo.Collection
	followers *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("messages"),
		followers: db.Collection("followers"),
	}
}

// EnsureIndexes creates the thread and follower indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "res_model", Value: 1}, {Key: "res_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_message_thread"),
	}); err != nil {
		return err
	}
	_, err := s.followers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "res_model", Value: 1}, {Key: "res_id", Value: 1}, {Key: "partner_id", Value: 1}},
		Options: options.Index().SetName("uniq_follower").SetUnique(true),
	})
	return err
}

// Post appends a message to a record thread.
func (s *Store) Post(ctx context.Context, m models.Message) (models.Message, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.PartnerIDs == nil {
		m.PartnerIDs = []primitive.ObjectID{}
	}
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// ListByRecord returns a record's thread, newest first.
func (s *Store) ListByRecord(ctx context.Context, resModel string, resID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"res_model": resModel, "res_id": resID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Subscribe makes partnerID a follower of the record thread. Subscribing twice is a no-op.
func (s *Store) Subscribe(ctx context.Context, resModel string, resID, partnerID primitive.ObjectID) error {
	filter := bson.M{"res_model": resModel, "res_id": resID, "partner_id": partnerID}
	_, err := s.followers.UpdateOne(ctx, filter, bson.M{
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}, options.Update().SetUpsert(true))
	return err
}

// Followers returns the partner IDs following a record.
func (s *Store) Followers(ctx context.Context, resModel string, resID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.followers.Find(ctx, bson.M{"res_model": resModel, "res_id": resID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Follower
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.PartnerID)
	}
	return ids, nil
}
