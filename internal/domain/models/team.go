// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team groups users that share activities.
//
// NOTE:
//   - Member lists are not embedded on Team.
//     All membership is stored in the activity_team_members collection.
//   - An empty ResModels applies the team to every model.
type Team struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Name      string              `bson:"name" json:"name"`
	NameCI    string              `bson:"name_ci" json:"-"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"` // default responsible
	ResModels []string            `bson:"res_models" json:"res_models"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the team is offered for new assignments.
// Archived teams keep their members and activities.
func (t Team) IsActive() bool {
	return t.Status == "" || t.Status == "active"
}

// AppliesTo reports whether the team may hold activities of resModel.
func (t Team) AppliesTo(resModel string) bool {
	if len(t.ResModels) == 0 || resModel == "" {
		return true
	}
	for _, m := range t.ResModels {
		if m == resModel {
			return true
		}
	}
	return false
}
