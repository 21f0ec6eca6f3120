package notify

import (
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the branch the recipient decision took.
type Kind int

const (
	// None: nobody to address (no team, no member, no user).
	None Kind = iota
	// SingleUser: the activity's user, or its assigned team member.
	SingleUser
	// TeamMembers: team set with no member; every member hears about it.
	TeamMembers
)

func (k Kind) String() string {
	switch k {
	case SingleUser:
		return "single_user"
	case TeamMembers:
		return "team_members"
	default:
		return "none"
	}
}

// Recipients is the outcome of DecideRecipients. UserIDs has the actor removed
// and may be empty even when Kind is not None.
type Recipients struct {
	Kind    Kind
	UserIDs []primitive.ObjectID
}

// DecideRecipients picks who is told about a newly created or reassigned
// activity.
//
// teamMembers is the active membership of act's team and is only consulted
// when the team is set without a member. The acting user is never notified.
func DecideRecipients(act models.Activity, teamMembers []primitive.ObjectID, actorID primitive.ObjectID) Recipients {
	switch {
	case !act.HasTeam() && !act.HasMember():
		if !act.HasUser() {
			return Recipients{Kind: None}
		}
		return Recipients{Kind: SingleUser, UserIDs: without([]primitive.ObjectID{*act.UserID}, actorID)}
	case act.HasTeam() && !act.HasMember():
		return Recipients{Kind: TeamMembers, UserIDs: without(teamMembers, actorID)}
	default:
		return Recipients{Kind: SingleUser, UserIDs: without([]primitive.ObjectID{*act.AssignedTeamMember}, actorID)}
	}
}

// Completion lists who is told that an activity was marked done.
type Completion struct {
	// Assignee is the assigned member (team mode) or the user (otherwise).
	Assignee *primitive.ObjectID
	// Responsible is the record's responsible user, notified independently.
	Responsible *primitive.ObjectID
}

// CompletionRecipients decides who hears about act being marked done by
// actorID. rec may be nil when the record has no responsible user.
func CompletionRecipients(act models.Activity, rec *models.Record, actorID primitive.ObjectID) Completion {
	var out Completion

	var assignee *primitive.ObjectID
	if act.HasTeam() {
		assignee = act.AssignedTeamMember
	} else {
		assignee = act.UserID
	}
	if assignee != nil && !assignee.IsZero() && *assignee != actorID {
		id := *assignee
		out.Assignee = &id
	}

	if rec != nil && rec.ResponsibleUserID != nil && !rec.ResponsibleUserID.IsZero() && *rec.ResponsibleUserID != actorID {
		id := *rec.ResponsibleUserID
		// Already told as the assignee.
		if out.Assignee == nil || *out.Assignee != id {
			out.Responsible = &id
		}
	}
	return out
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
