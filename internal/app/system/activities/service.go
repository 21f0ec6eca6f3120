// Package activities is the lifecycle of team-assigned activities: create,
// write, mark done, and the projections the UI reads.
//
// It glues the stores to the resolution engine (teamassign) and the
// notification router (notify). Every multi-document write runs through Tx.
package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/auditlog"
	"github.com/dalemusser/activityteams/internal/app/system/notify"
	"github.com/dalemusser/activityteams/internal/app/system/teamassign"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrActivityNotFound is returned when an activity ID does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrRecordNotFound is returned when an activity targets a record that does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidActivity is returned for activities missing their target record.
	ErrInvalidActivity = errors.New("invalid activity")
)

// ActivityStore persists activities.
type ActivityStore interface {
	InsertMany(ctx context.Context, acts []models.Activity) ([]models.Activity, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Activity, error)
	Replace(ctx context.Context, acts []models.Activity) error
	MarkDone(ctx context.Context, id primitive.ObjectID, feedback string, at time.Time) error
	GetType(ctx context.Context, id primitive.ObjectID) (models.ActivityType, error)
}

// UserStore reads users and their partner identities.
//
// PartnerIDAs applies the actor's access rights and fails with
// userstore.ErrAccessDenied; PartnerIDElevated does not check.
type UserStore interface {
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	PartnerIDAs(ctx context.Context, a actor.Actor, userID primitive.ObjectID) (primitive.ObjectID, error)
	PartnerIDElevated(ctx context.Context, userID primitive.ObjectID) (primitive.ObjectID, error)
}

// RecordStore reads the business records activities are attached to.
type RecordStore interface {
	Get(ctx context.Context, resModel string, resID primitive.ObjectID) (models.Record, error)
	DescribeModel(ctx context.Context, model string) (string, error)
}

// TeamReader loads teams by ID.
type TeamReader interface {
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Team, error)
}

// Thread is a record's message thread and follower list.
type Thread interface {
	notify.Thread
	Subscribe(ctx context.Context, resModel string, resID, partnerID primitive.ObjectID) error
}

// TxFunc runs fn in one unit of work. See txn.Run.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Deps are the collaborators of a Service.
type Deps struct {
	Activities ActivityStore
	Users      UserStore
	Records    RecordStore
	Teams      TeamReader
	Thread     Thread
	Engine     *teamassign.Engine
	Router     *notify.Router
	// Access defaults to ActiveAssignee.
	Access AccessChecker
	// Audit may be nil.
	Audit *auditlog.Logger
	// Tx defaults to running fn directly.
	Tx     TxFunc
	Logger *zap.Logger
}

// Service implements the activity lifecycle.
type Service struct {
	activities ActivityStore
	users      UserStore
	records    RecordStore
	teams      TeamReader
	thread     Thread
	engine     *teamassign.Engine
	router     *notify.Router
	access     AccessChecker
	audit      *auditlog.Logger
	tx         TxFunc
	log        *zap.Logger
	now        func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	s := &Service{
		activities: d.Activities,
		users:      d.Users,
		records:    d.Records,
		teams:      d.Teams,
		thread:     d.Thread,
		engine:     d.Engine,
		router:     d.Router,
		access:     d.Access,
		audit:      d.Audit,
		tx:         d.Tx,
		log:        d.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.access == nil {
		s.access = ActiveAssignee{}
	}
	if s.tx == nil {
		s.tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// DefaultTeam is the team a new activity on resModel created by a gets.
func (s *Service) DefaultTeam(ctx context.Context, a actor.Actor, resModel string) (*models.Team, error) {
	return s.engine.DefaultTeam(ctx, a.ID, resModel)
}

// OnTeamChanged recomputes draft's assignee for its new team.
func (s *Service) OnTeamChanged(ctx context.Context, draft *models.Activity) (teamassign.UserDomain, error) {
	return s.engine.OnTeamChanged(ctx, draft)
}

// OnMemberChanged recomputes draft's team for its new assignee.
func (s *Service) OnMemberChanged(ctx context.Context, draft *models.Activity) (teamassign.TeamDomain, error) {
	return s.engine.OnMemberChanged(ctx, draft)
}

// load fetches ids in order and fails if any is missing.
func (s *Service) load(ctx context.Context, ids []primitive.ObjectID) ([]models.Activity, error) {
	acts, err := s.activities.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(acts) != len(ids) {
		return nil, ErrActivityNotFound
	}
	return acts, nil
}

func (s *Service) record(ctx context.Context, resModel string, resID primitive.ObjectID) (models.Record, error) {
	rec, err := s.records.Get(ctx, resModel, resID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Record{}, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, resModel, resID.Hex())
	}
	return rec, err
}

// partnerFor reads userID's partner as a, elevating when a may not read it.
func (s *Service) partnerFor(ctx context.Context, a actor.Actor, userID primitive.ObjectID) (primitive.ObjectID, error) {
	pid, err := s.users.PartnerIDAs(ctx, a, userID)
	if !errors.Is(err, userstore.ErrAccessDenied) {
		return pid, err
	}

	s.log.Warn("reading partner with elevated privileges",
		zap.String("actor_id", a.ID.Hex()),
		zap.String("user_id", userID.Hex()))
	s.audit.PrivilegeElevated(ctx, a.ID, userID, "partner read")
	return s.users.PartnerIDElevated(ctx, userID)
}

// missingPartner reports errors that mean "nobody to address" rather than failure.
func missingPartner(err error) bool {
	return errors.Is(err, userstore.ErrNoPartner) || errors.Is(err, mongo.ErrNoDocuments)
}

// target gathers what the notification templates say about act's record.
func (s *Service) target(ctx context.Context, act models.Activity) (notify.Target, error) {
	rec, err := s.records.Get(ctx, act.ResModel, act.ResID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		rec = models.Record{ID: act.ResID, ResModel: act.ResModel, DisplayName: act.ResID.Hex()}
	} else if err != nil {
		return notify.Target{}, err
	}

	desc, err := s.records.DescribeModel(ctx, act.ResModel)
	if err != nil {
		return notify.Target{}, err
	}
	t := notify.Target{Record: rec, ModelDescription: desc}

	if act.ActivityTypeID != nil && !act.ActivityTypeID.IsZero() {
		typ, err := s.activities.GetType(ctx, *act.ActivityTypeID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return notify.Target{}, err
		}
		t.TypeName = typ.Name
	}

	if act.HasTeam() {
		teams, err := s.teams.GetMany(ctx, []primitive.ObjectID{*act.TeamID})
		if err != nil {
			return notify.Target{}, err
		}
		t.TeamName = teams[*act.TeamID].Name
	}
	return t, nil
}

// author is a as a notification author. Failing to resolve it only loses the
// message's author.
func (s *Service) author(ctx context.Context, a actor.Actor) *notify.Recipient {
	r := &notify.Recipient{UserID: a.ID, Name: a.Name, Lang: a.Lang}
	pid, err := s.partnerFor(ctx, a, a.ID)
	if err != nil {
		if !missingPartner(err) {
			s.log.Warn("cannot resolve author partner", zap.String("actor_id", a.ID.Hex()), zap.Error(err))
		}
		return r
	}
	r.PartnerID = pid
	return r
}

// recipients resolves userIDs into addressable recipients. Users without a
// partner are skipped.
func (s *Service) recipients(ctx context.Context, a actor.Actor, userIDs []primitive.ObjectID) ([]notify.Recipient, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	users, err := s.users.GetMany(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]notify.Recipient, 0, len(userIDs))
	for _, id := range userIDs {
		u, ok := users[id]
		if !ok {
			s.log.Warn("notification recipient not found", zap.String("user_id", id.Hex()))
			continue
		}
		pid, err := s.partnerFor(ctx, a, id)
		if missingPartner(err) {
			s.log.Warn("notification recipient has no partner", zap.String("user_id", id.Hex()))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, notify.Recipient{UserID: id, PartnerID: pid, Name: u.FullName, Email: u.Email, Lang: u.Lang})
	}
	return out, nil
}

// notifyAssigned runs the recipient decision for act and notifies everyone it picks.
func (s *Service) notifyAssigned(ctx context.Context, a actor.Actor, act models.Activity) error {
	var members []primitive.ObjectID
	if act.HasTeam() && !act.HasMember() {
		var err error
		members, err = s.engine.TeamMembers(ctx, act.TeamID)
		if err != nil {
			return err
		}
	}

	decision := notify.DecideRecipients(act, members, a.ID)
	if len(decision.UserIDs) == 0 {
		return nil
	}

	to, err := s.recipients(ctx, a, decision.UserIDs)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		return nil
	}
	t, err := s.target(ctx, act)
	if err != nil {
		return err
	}
	author := s.author(ctx, a)
	for _, r := range to {
		if _, err := s.router.NotifyAssigned(ctx, r, act, t, author); err != nil {
			return fmt.Errorf("notify %s: %w", r.UserID.Hex(), err)
		}
	}
	return nil
}

// subscribe adds userID's partner as a follower of act's record.
func (s *Service) subscribe(ctx context.Context, a actor.Actor, act models.Activity, userID primitive.ObjectID) error {
	pid, err := s.partnerFor(ctx, a, userID)
	if missingPartner(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.thread.Subscribe(ctx, act.ResModel, act.ResID, pid)
}

// auditRejection records a consistency failure.
func (s *Service) auditRejection(ctx context.Context, a actor.Actor, err error) {
	var verr *teamassign.ValidationError
	if errors.As(err, &verr) {
		s.audit.ConsistencyRejected(ctx, a.ID, verr.ActivityID, verr.UserID, verr.TeamID, verr.Error())
	}
}

// assignee is who an activity is assigned to: the team member, else the user.
func assignee(act models.Activity) *primitive.ObjectID {
	if act.HasMember() {
		return act.AssignedTeamMember
	}
	if act.HasUser() {
		return act.UserID
	}
	return nil
}
