// internal/domain/models/record.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is the business document an activity is attached to.
// ResponsibleUserID is optional; when set, that user also hears about completions.
type Record struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ResModel          string              `bson:"res_model" json:"res_model"`
	DisplayName       string              `bson:"display_name" json:"display_name"`
	ResponsibleUserID *primitive.ObjectID `bson:"responsible_user_id,omitempty" json:"responsible_user_id,omitempty"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
}

// ResModel describes a model activities may attach to.
type ResModel struct {
	Model       string `bson:"_id" json:"model"`
	Description string `bson:"description" json:"description"`
}
