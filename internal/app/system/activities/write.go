package activities

import (
	"context"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Update is a bulk change. Nil fields are left alone; for the ID fields a
// pointer to primitive.NilObjectID clears the field.
type Update struct {
	Summary            *string
	Note               *string
	DateDeadline       *time.Time
	ActivityTypeID     *primitive.ObjectID
	UserID             *primitive.ObjectID
	TeamID             *primitive.ObjectID
	AssignedTeamMember *primitive.ObjectID
}

// WriteOptions tune side effects of Write.
type WriteOptions struct {
	// QuickUpdate suppresses assignment notifications.
	QuickUpdate bool
}

func (u Update) apply(act *models.Activity) {
	if u.Summary != nil {
		act.Summary = *u.Summary
	}
	if u.Note != nil {
		act.Note = *u.Note
	}
	if u.DateDeadline != nil {
		act.DateDeadline = *u.DateDeadline
	}
	if u.ActivityTypeID != nil {
		act.ActivityTypeID = orNil(u.ActivityTypeID)
	}
	if u.UserID != nil {
		act.UserID = orNil(u.UserID)
	}
	if u.TeamID != nil {
		act.TeamID = orNil(u.TeamID)
	}
	if u.AssignedTeamMember != nil {
		act.AssignedTeamMember = orNil(u.AssignedTeamMember)
	}
}

// touchesAssignment reports whether u persists team_id or
// assigned_team_member, the fields the consistency constraint guards.
func (u Update) touchesAssignment() bool {
	return u.TeamID != nil || u.AssignedTeamMember != nil
}

func orNil(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil || id.IsZero() {
		return nil
	}
	v := *id
	return &v
}

func sameRef(a, b *primitive.ObjectID) bool {
	a, b = orNil(a), orNil(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Write applies upd to every activity in ids on behalf of a.
//
// When the assigned team member changes, the previous assignees' partners are
// captured first. The new assignee must pass the access check on every
// non-automated activity, the whole batch is validated and written together,
// and then each changed activity goes through the recipient decision again
// (unless opts.QuickUpdate) and the new assignee follows its record.
func (s *Service) Write(ctx context.Context, a actor.Actor, ids []primitive.ObjectID, upd Update, opts WriteOptions) ([]models.Activity, error) {
	acts, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	memberChange := upd.AssignedTeamMember != nil
	newMember := orNil(upd.AssignedTeamMember)

	var changed []int
	var previous []primitive.ObjectID
	if memberChange {
		for i, act := range acts {
			if sameRef(act.AssignedTeamMember, newMember) {
				continue
			}
			changed = append(changed, i)
			if !act.HasMember() {
				continue
			}
			pid, err := s.partnerFor(ctx, a, *act.AssignedTeamMember)
			if missingPartner(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			previous = append(previous, pid)
		}
		if len(previous) > 0 {
			s.log.Debug("previous assignees captured",
				zap.String("actor_id", a.ID.Hex()),
				zap.Int("count", len(previous)))
		}
	}

	for i := range acts {
		upd.apply(&acts[i])
	}

	// The acting user assigning to themselves needs no access check.
	checkAccess := newMember != nil && *newMember != a.ID && len(changed) > 0
	var newAssignee *models.User
	if checkAccess {
		users, err := s.users.GetMany(ctx, []primitive.ObjectID{*newMember})
		if err != nil {
			return nil, err
		}
		if u, ok := users[*newMember]; ok {
			newAssignee = &u
		}
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if upd.touchesAssignment() {
			if err := s.engine.Check(ctx, acts); err != nil {
				return err
			}
		}
		if checkAccess {
			for _, i := range changed {
				if acts[i].Automated {
					continue
				}
				if err := s.access.CheckAssignation(ctx, acts[i], newAssignee); err != nil {
					s.audit.AssignationDenied(ctx, a.ID, acts[i].ID, *newMember, err.Error())
					return err
				}
			}
		}
		return s.activities.Replace(ctx, acts)
	})
	if err != nil {
		s.auditRejection(ctx, a, err)
		return nil, err
	}

	for _, i := range changed {
		act := acts[i]
		s.audit.ActivityReassigned(ctx, a.ID, act.ID, act.TeamID, act.AssignedTeamMember, previous)

		if !opts.QuickUpdate {
			if err := s.notifyAssigned(ctx, a, act); err != nil {
				return acts, err
			}
		}
		if newMember != nil {
			if err := s.subscribe(ctx, a, act, *newMember); err != nil {
				return acts, err
			}
		}
	}
	return acts, nil
}

// SetAssignedTeamMember assigns a as the team member of every activity in ids.
func (s *Service) SetAssignedTeamMember(ctx context.Context, a actor.Actor, ids []primitive.ObjectID) ([]models.Activity, error) {
	me := a.ID
	return s.Write(ctx, a, ids, Update{AssignedTeamMember: &me}, WriteOptions{})
}
