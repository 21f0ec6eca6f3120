// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity states.
const (
	ActivityPlanned = "planned"
	ActivityDone    = "done"
)

// Activity is a unit of work attached to a business record (ResModel + ResID).
//
// An activity is either user-assigned (UserID only), team-assigned (TeamID,
// no AssignedTeamMember) or member-assigned (TeamID + AssignedTeamMember).
// The team's member list is never stored here; it is read through the
// activity_team_members collection.
type Activity struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ResModel       string              `bson:"res_model" json:"res_model"`
	ResID          primitive.ObjectID  `bson:"res_id" json:"res_id"`
	ActivityTypeID *primitive.ObjectID `bson:"activity_type_id,omitempty" json:"activity_type_id,omitempty"`
	Summary        string              `bson:"summary,omitempty" json:"summary,omitempty"`
	Note           string              `bson:"note,omitempty" json:"note,omitempty"`
	DateDeadline   time.Time           `bson:"date_deadline" json:"date_deadline"`

	UserID             *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	TeamID             *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	AssignedTeamMember *primitive.ObjectID `bson:"assigned_team_member,omitempty" json:"assigned_team_member,omitempty"`
	Automated          bool                `bson:"automated" json:"automated"`

	State     string              `bson:"state" json:"state"`
	Feedback  string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	DoneAt    *time.Time          `bson:"done_at,omitempty" json:"done_at,omitempty"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasTeam reports whether the activity is routed to a team.
func (a Activity) HasTeam() bool { return a.TeamID != nil && !a.TeamID.IsZero() }

// HasMember reports whether a team member is assigned.
func (a Activity) HasMember() bool {
	return a.AssignedTeamMember != nil && !a.AssignedTeamMember.IsZero()
}

// HasUser reports whether a responsible user is set.
func (a Activity) HasUser() bool { return a.UserID != nil && !a.UserID.IsZero() }

// ActivityType classifies activities (call, email, to-do...).
type ActivityType struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Summary string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Icon    string             `bson:"icon,omitempty" json:"icon,omitempty"`
}
