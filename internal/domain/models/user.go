// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuperuserID identifies the system account that owns activities created by
// internal processes (scheduled actions, stock/sales automation, imports).
//
// The system account is never listed as an active team member, so the
// team/assignee consistency check skips it. It is not an authorization bypass:
// only the membership check treats it specially.
var SuperuserID = mustObjectID("000000000000000000000001")

func mustObjectID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}

// User is anyone who can act on or be assigned to an activity.
//
// NOTE:
//   - Team membership is not embedded on User.
//     Use the activity_team_members collection to discover a user's teams.
//   - PartnerID is the addressing identity used for notifications and
//     record thread subscriptions.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	AuthMethod   string              `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // trust | password
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"` // admin | user
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	Lang         string              `bson:"lang,omitempty" json:"lang,omitempty"` // BCP 47 tag, e.g. "hu-HU"
	PartnerID    *primitive.ObjectID `bson:"partner_id,omitempty" json:"partner_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user is not archived.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == "active"
}
