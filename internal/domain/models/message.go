// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds posted to a record thread.
const (
	MessageNotification = "notification"
	MessageActivityDone = "activity_done"
)

// Message is an entry in a record's thread.
type Message struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ResModel         string               `bson:"res_model" json:"res_model"`
	ResID            primitive.ObjectID   `bson:"res_id" json:"res_id"`
	Kind             string               `bson:"kind" json:"kind"`
	PartnerIDs       []primitive.ObjectID `bson:"partner_ids" json:"partner_ids"`
	AuthorID         *primitive.ObjectID  `bson:"author_id,omitempty" json:"author_id,omitempty"`
	Subject          string               `bson:"subject" json:"subject"`
	Body             string               `bson:"body" json:"body"`
	ModelDescription string               `bson:"model_description,omitempty" json:"model_description,omitempty"`
	TrackingID       string               `bson:"tracking_id,omitempty" json:"tracking_id,omitempty"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
}

// Follower subscribes a partner to a record thread.
type Follower struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResModel  string             `bson:"res_model" json:"res_model"`
	ResID     primitive.ObjectID `bson:"res_id" json:"res_id"`
	PartnerID primitive.ObjectID `bson:"partner_id" json:"partner_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
