// internal/app/features/activity/types.go
package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/activities"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deadline accepts a plain date ("2026-10-20") or an RFC 3339 timestamp.
type Deadline struct {
	time.Time
}

func (d *Deadline) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date_deadline %q: want YYYY-MM-DD or RFC 3339", s)
	}
	d.Time = t.UTC()
	return nil
}

// activityInput is one activity in a create request or an onchange draft.
type activityInput struct {
	ResModel           string              `json:"res_model"`
	ResID              primitive.ObjectID  `json:"res_id"`
	ActivityTypeID     *primitive.ObjectID `json:"activity_type_id"`
	Summary            string              `json:"summary"`
	Note               string              `json:"note"`
	DateDeadline       Deadline            `json:"date_deadline"`
	UserID             *primitive.ObjectID `json:"user_id"`
	TeamID             *primitive.ObjectID `json:"team_id"`
	AssignedTeamMember *primitive.ObjectID `json:"assigned_team_member"`
	Automated          bool                `json:"automated"`
}

func (in activityInput) model() models.Activity {
	deadline := in.DateDeadline.Time
	if deadline.IsZero() {
		deadline = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return models.Activity{
		ResModel:           strings.TrimSpace(in.ResModel),
		ResID:              in.ResID,
		ActivityTypeID:     nonZero(in.ActivityTypeID),
		Summary:            in.Summary,
		Note:               in.Note,
		DateDeadline:       deadline,
		UserID:             nonZero(in.UserID),
		TeamID:             nonZero(in.TeamID),
		AssignedTeamMember: nonZero(in.AssignedTeamMember),
		Automated:          in.Automated,
	}
}

// nonZero drops the "" / zero ObjectID a client sends for an empty field.
func nonZero(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil || id.IsZero() {
		return nil
	}
	return id
}

type createRequest struct {
	Activities []activityInput `json:"activities"`
}

// writeRequest is a bulk update. Absent or null fields stay unchanged; an
// empty string clears an ID field.
type writeRequest struct {
	IDs                []primitive.ObjectID `json:"ids"`
	QuickUpdate        bool                 `json:"quick_update"`
	Summary            *string              `json:"summary"`
	Note               *string              `json:"note"`
	DateDeadline       *Deadline            `json:"date_deadline"`
	ActivityTypeID     *primitive.ObjectID  `json:"activity_type_id"`
	UserID             *primitive.ObjectID  `json:"user_id"`
	TeamID             *primitive.ObjectID  `json:"team_id"`
	AssignedTeamMember *primitive.ObjectID  `json:"assigned_team_member"`
}

func (req writeRequest) update() activities.Update {
	upd := activities.Update{
		Summary:            req.Summary,
		Note:               req.Note,
		ActivityTypeID:     req.ActivityTypeID,
		UserID:             req.UserID,
		TeamID:             req.TeamID,
		AssignedTeamMember: req.AssignedTeamMember,
	}
	if req.DateDeadline != nil && !req.DateDeadline.IsZero() {
		t := req.DateDeadline.Time
		upd.DateDeadline = &t
	}
	return upd
}

type doneRequest struct {
	IDs      []primitive.ObjectID `json:"ids"`
	Feedback string               `json:"feedback"`
}

// onchangeResponse returns the draft after the rule ran plus the candidate set.
type onchangeResponse struct {
	Activity activityDraft `json:"activity"`
	Domain   any           `json:"domain"`
}

type activityDraft struct {
	UserID             *primitive.ObjectID `json:"user_id"`
	TeamID             *primitive.ObjectID `json:"team_id"`
	AssignedTeamMember *primitive.ObjectID `json:"assigned_team_member"`
}

func draftOf(a models.Activity) activityDraft {
	return activityDraft{
		UserID:             a.UserID,
		TeamID:             a.TeamID,
		AssignedTeamMember: a.AssignedTeamMember,
	}
}
