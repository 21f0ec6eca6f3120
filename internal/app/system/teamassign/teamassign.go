// Package teamassign keeps an activity's team and assigned team member
// consistent.
//
// It supplies the default team for a new activity, the candidate lists the UI
// offers when the team or the member changes, and the consistency check every
// persisted activity must pass. Membership is always read through the
// Directory; nothing here stores a copy of a team's members.
package teamassign

import (
	"context"
	"fmt"

	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Directory is the read side of teams and users the engine needs.
type Directory interface {
	Team(ctx context.Context, id primitive.ObjectID) (models.Team, error)
	// TeamMemberIDs lists members in join order. Archived users are only
	// returned when includeInactive is set.
	TeamMemberIDs(ctx context.Context, teamID primitive.ObjectID, includeInactive bool) ([]primitive.ObjectID, error)
	UserTeamIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	// FirstTeamForModel returns the first of teamIDs (ascending ID) that
	// applies to resModel; ok is false when none does.
	FirstTeamForModel(ctx context.Context, teamIDs []primitive.ObjectID, resModel string) (team models.Team, ok bool, err error)
	TeamsForModel(ctx context.Context, resModel string) ([]models.Team, error)
	UserName(ctx context.Context, id primitive.ObjectID) (string, error)
}

// ValidationError reports an assignee who is not a member of the activity's team.
type ValidationError struct {
	ActivityID primitive.ObjectID
	UserID     primitive.ObjectID
	TeamID     primitive.ObjectID
	UserName   string
	TeamName   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("The assigned user %s is not member of the team %s.", e.UserName, e.TeamName)
}

// UserDomain is the set of users the assigned_team_member field may take.
// When Restricted is false any user may be chosen.
type UserDomain struct {
	Restricted bool                 `json:"restricted"`
	UserIDs    []primitive.ObjectID `json:"user_ids"`
}

// TeamDomain is the set of teams the team field may take.
// When Restricted is false any team may be chosen.
type TeamDomain struct {
	Restricted bool          `json:"restricted"`
	Teams      []models.Team `json:"teams"`
}

// Engine evaluates the team/member rules.
type Engine struct {
	dir Directory
	log *zap.Logger
}

// New creates an Engine.
func New(dir Directory, logger *zap.Logger) *Engine {
	return &Engine{dir: dir, log: logger}
}

// DefaultTeam returns the first team (creation order) that userID belongs to
// and that applies to resModel. A zero userID or no match yields nil.
func (e *Engine) DefaultTeam(ctx context.Context, userID primitive.ObjectID, resModel string) (*models.Team, error) {
	if userID.IsZero() {
		return nil, nil
	}
	teamIDs, err := e.dir.UserTeamIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(teamIDs) == 0 {
		return nil, nil
	}
	team, ok, err := e.dir.FirstTeamForModel(ctx, teamIDs, resModel)
	if err != nil || !ok {
		return nil, err
	}
	return &team, nil
}

// TeamMembers is the read-through projection of team_member_ids: the active
// members of teamID, or nil when no team is set.
func (e *Engine) TeamMembers(ctx context.Context, teamID *primitive.ObjectID) ([]primitive.ObjectID, error) {
	if teamID == nil || teamID.IsZero() {
		return nil, nil
	}
	return e.dir.TeamMemberIDs(ctx, *teamID, false)
}

// ApplyDefaults fills the team and member of a new activity.
//
// Without an explicit team, the creator's default team for the activity's
// model is used. With a team and no member, the team's default responsible
// user is assigned when that user is a member.
func (e *Engine) ApplyDefaults(ctx context.Context, creatorID primitive.ObjectID, act *models.Activity) error {
	if !act.HasTeam() {
		act.TeamID = nil
		team, err := e.DefaultTeam(ctx, creatorID, act.ResModel)
		if err != nil {
			return err
		}
		if team == nil {
			return nil
		}
		act.TeamID = &team.ID
	}
	if act.HasMember() {
		return nil
	}
	act.AssignedTeamMember = nil

	team, err := e.dir.Team(ctx, *act.TeamID)
	if err != nil {
		return err
	}
	if team.UserID == nil || team.UserID.IsZero() {
		return nil
	}
	members, err := e.dir.TeamMemberIDs(ctx, team.ID, true)
	if err != nil {
		return err
	}
	if contains(members, *team.UserID) {
		def := *team.UserID
		act.AssignedTeamMember = &def
	}
	return nil
}

// OnTeamChanged recomputes the assignee after the team changed and returns the
// users that may now be assigned.
//
//   - team cleared: no restriction, assignee untouched
//   - assignee already a member: unchanged
//   - team has a default responsible user: that user
//   - team has exactly one member: that member
//   - otherwise: assignee cleared
func (e *Engine) OnTeamChanged(ctx context.Context, act *models.Activity) (UserDomain, error) {
	if !act.HasTeam() {
		return UserDomain{}, nil
	}
	team, err := e.dir.Team(ctx, *act.TeamID)
	if err != nil {
		return UserDomain{}, err
	}
	members, err := e.dir.TeamMemberIDs(ctx, team.ID, false)
	if err != nil {
		return UserDomain{}, err
	}
	domain := UserDomain{Restricted: true, UserIDs: members}
	if domain.UserIDs == nil {
		domain.UserIDs = []primitive.ObjectID{}
	}

	if act.HasMember() && contains(members, *act.AssignedTeamMember) {
		return domain, nil
	}

	switch {
	case team.UserID != nil && !team.UserID.IsZero():
		def := *team.UserID
		act.AssignedTeamMember = &def
	case len(members) == 1:
		only := members[0]
		act.AssignedTeamMember = &only
	default:
		act.AssignedTeamMember = nil
	}
	return domain, nil
}

// OnMemberChanged re-resolves the team after the assignee changed and returns
// the teams that may hold the activity.
//
// A cleared member yields no restriction. If the current team already contains
// the member nothing changes; otherwise the member's default team for the
// activity's model is adopted, which may clear the team.
func (e *Engine) OnMemberChanged(ctx context.Context, act *models.Activity) (TeamDomain, error) {
	if !act.HasMember() {
		return TeamDomain{}, nil
	}
	teams, err := e.dir.TeamsForModel(ctx, act.ResModel)
	if err != nil {
		return TeamDomain{}, err
	}
	domain := TeamDomain{Restricted: true, Teams: teams}
	if domain.Teams == nil {
		domain.Teams = []models.Team{}
	}

	if act.HasTeam() {
		members, err := e.dir.TeamMemberIDs(ctx, *act.TeamID, false)
		if err != nil {
			return TeamDomain{}, err
		}
		if contains(members, *act.AssignedTeamMember) {
			return domain, nil
		}
	}

	team, err := e.DefaultTeam(ctx, *act.AssignedTeamMember, act.ResModel)
	if err != nil {
		return TeamDomain{}, err
	}
	if team == nil {
		act.TeamID = nil
	} else {
		act.TeamID = &team.ID
	}
	return domain, nil
}

// Check enforces that every assigned team member belongs to the activity's
// team. Archived members count, since scheduled activities may reference
// deactivated users. The system account is exempt.
//
// The first violation is returned as *ValidationError; callers abort the
// whole write.
func (e *Engine) Check(ctx context.Context, acts []models.Activity) error {
	cache := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, act := range acts {
		if !act.HasMember() || !act.HasTeam() {
			continue
		}
		member := *act.AssignedTeamMember
		if member == models.SuperuserID {
			continue
		}

		teamID := *act.TeamID
		members, seen := cache[teamID]
		if !seen {
			var err error
			members, err = e.dir.TeamMemberIDs(ctx, teamID, true)
			if err != nil {
				return err
			}
			cache[teamID] = members
		}
		if contains(members, member) {
			continue
		}
		return e.violation(ctx, act, member, teamID)
	}
	return nil
}

func (e *Engine) violation(ctx context.Context, act models.Activity, userID, teamID primitive.ObjectID) error {
	verr := &ValidationError{ActivityID: act.ID, UserID: userID, TeamID: teamID}

	name, err := e.dir.UserName(ctx, userID)
	if err != nil {
		return err
	}
	verr.UserName = name

	team, err := e.dir.Team(ctx, teamID)
	if err != nil {
		return err
	}
	verr.TeamName = team.Name

	e.log.Info("team member check failed",
		zap.String("activity_id", act.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("team_id", teamID.Hex()))
	return verr
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
