// internal/app/store/records/recordstore.go
package recordstore

import (
	"context"
	"time"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store resolves the business records activities attach to, and the
// human-readable descriptions of their models.
type Store struct {
	c      *mongo.Collection
	models *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("records"),
		models: db.Collection("res_models"),
	}
}

// Get loads the record (resModel, resID).
func (s *Store) Get(ctx context.Context, resModel string, resID primitive.ObjectID) (models.Record, error) {
	var r models.Record
	if err := s.c.FindOne(ctx, bson.M{"_id": resID, "res_model": resModel}).Decode(&r); err != nil {
		return models.Record{}, err
	}
	return r, nil
}

// Create stores a record.
func (s *Store) Create(ctx context.Context, r models.Record) (models.Record, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Record{}, err
	}
	return r, nil
}

// SetResponsible changes (or clears, with nil) the record's responsible user.
func (s *Store) SetResponsible(ctx context.Context, resID primitive.ObjectID, userID *primitive.ObjectID) error {
	update := bson.M{"$unset": bson.M{"responsible_user_id": ""}}
	if userID != nil {
		update = bson.M{"$set": bson.M{"responsible_user_id": *userID}}
	}
	_, err := s.c.UpdateByID(ctx, resID, update)
	return err
}

// DescribeModel returns the description registered for model, or the model
// name itself when none is registered.
func (s *Store) DescribeModel(ctx context.Context, model string) (string, error) {
	var m models.ResModel
	err := s.models.FindOne(ctx, bson.M{"_id": model}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return model, nil
	}
	if err != nil {
		return "", err
	}
	return m.Description, nil
}

// RegisterModel upserts a model description.
func (s *Store) RegisterModel(ctx context.Context, model, description string) error {
	_, err := s.models.UpdateByID(ctx, model,
		bson.M{"$set": bson.M{"description": description}},
		options.Update().SetUpsert(true))
	return err
}
