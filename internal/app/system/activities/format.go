package activities

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Formatted is the list/kanban view of an activity. AssignedTeamMember is
// flattened to the member's display name.
type Formatted struct {
	ID               primitive.ObjectID  `json:"id"`
	ResModel         string              `json:"res_model"`
	ResID            primitive.ObjectID  `json:"res_id"`
	ActivityTypeID   *primitive.ObjectID `json:"activity_type_id,omitempty"`
	ActivityTypeName string              `json:"activity_type_name,omitempty"`
	Summary          string              `json:"summary"`
	Note             string              `json:"note"`
	DateDeadline     time.Time           `json:"date_deadline"`
	State            string              `json:"state"`
	Automated        bool                `json:"automated"`

	UserID   *primitive.ObjectID `json:"user_id,omitempty"`
	UserName string              `json:"user_name,omitempty"`

	TeamID   *primitive.ObjectID `json:"team_id,omitempty"`
	TeamName string              `json:"team_name"`

	AssignedTeamMemberID *primitive.ObjectID `json:"assigned_team_member_id,omitempty"`
	AssignedTeamMember   string              `json:"assigned_team_member"`
}

// Format projects the activities in ids for display, in the order given.
func (s *Service) Format(ctx context.Context, ids []primitive.ObjectID) ([]Formatted, error) {
	acts, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	var userIDs, teamIDs []primitive.ObjectID
	for _, act := range acts {
		if act.HasUser() {
			userIDs = append(userIDs, *act.UserID)
		}
		if act.HasMember() {
			userIDs = append(userIDs, *act.AssignedTeamMember)
		}
		if act.HasTeam() {
			teamIDs = append(teamIDs, *act.TeamID)
		}
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.GetMany(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	typeNames := map[primitive.ObjectID]string{}

	out := make([]Formatted, 0, len(acts))
	for _, act := range acts {
		f := Formatted{
			ID:             act.ID,
			ResModel:       act.ResModel,
			ResID:          act.ResID,
			ActivityTypeID: act.ActivityTypeID,
			Summary:        act.Summary,
			Note:           act.Note,
			DateDeadline:   act.DateDeadline,
			State:          act.State,
			Automated:      act.Automated,
		}
		if act.HasUser() {
			f.UserID = act.UserID
			f.UserName = users[*act.UserID].FullName
		}
		if act.HasTeam() {
			f.TeamID = act.TeamID
			f.TeamName = teams[*act.TeamID].Name
		}
		if act.HasMember() {
			f.AssignedTeamMemberID = act.AssignedTeamMember
			f.AssignedTeamMember = users[*act.AssignedTeamMember].FullName
		}
		if act.ActivityTypeID != nil && !act.ActivityTypeID.IsZero() {
			name, ok := typeNames[*act.ActivityTypeID]
			if !ok {
				typ, err := s.activities.GetType(ctx, *act.ActivityTypeID)
				if err == nil {
					name = typ.Name
				}
				typeNames[*act.ActivityTypeID] = name
			}
			f.ActivityTypeName = name
		}
		out = append(out, f)
	}
	return out, nil
}
