package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/app/system/notify"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MarkDone completes every activity in ids on behalf of a.
//
// Completion notifications go out first. The activities are then archived as
// done, with a completion message on each record's thread, whether or not the
// notifications succeeded; notification failures are returned joined after
// the archive. Activities already done are skipped.
func (s *Service) MarkDone(ctx context.Context, a actor.Actor, ids []primitive.ObjectID, feedback string) ([]models.Activity, error) {
	acts, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	pending := acts[:0:0]
	for _, act := range acts {
		if act.State != models.ActivityDone {
			pending = append(pending, act)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var notifyErrs []error
	for _, act := range pending {
		if err := s.notifyDone(ctx, a, act, feedback); err != nil {
			s.log.Warn("completion notification failed",
				zap.String("activity_id", act.ID.Hex()),
				zap.Error(err))
			notifyErrs = append(notifyErrs, err)
		}
	}

	author := s.author(ctx, a)
	at := s.now()
	err = s.tx(ctx, func(ctx context.Context) error {
		for i := range pending {
			act := &pending[i]
			if err := s.activities.MarkDone(ctx, act.ID, feedback, at); err != nil {
				return err
			}
			act.State = models.ActivityDone
			act.Feedback = feedback
			act.DoneAt = &at

			msg := models.Message{
				ResModel:  act.ResModel,
				ResID:     act.ResID,
				Kind:      models.MessageActivityDone,
				Subject:   act.Summary,
				Body:      feedback,
				CreatedAt: at,
			}
			if !author.PartnerID.IsZero() {
				pid := author.PartnerID
				msg.AuthorID = &pid
			}
			if _, err := s.thread.Post(ctx, msg); err != nil {
				return fmt.Errorf("post completion: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, act := range pending {
		s.audit.ActivityDone(ctx, a.ID, act.ID, act.TeamID)
	}
	return pending, errors.Join(notifyErrs...)
}

func (s *Service) notifyDone(ctx context.Context, a actor.Actor, act models.Activity, feedback string) error {
	rec, err := s.record(ctx, act.ResModel, act.ResID)
	var recPtr *models.Record
	switch {
	case err == nil:
		recPtr = &rec
	case errors.Is(err, ErrRecordNotFound):
	default:
		return err
	}

	who := notify.CompletionRecipients(act, recPtr, a.ID)
	var userIDs []primitive.ObjectID
	if who.Assignee != nil {
		userIDs = append(userIDs, *who.Assignee)
	}
	if who.Responsible != nil {
		userIDs = append(userIDs, *who.Responsible)
	}
	if len(userIDs) == 0 {
		return nil
	}

	to, err := s.recipients(ctx, a, userIDs)
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
		if _, err := s.router.NotifyDone(ctx, r, act, t, *author, feedback); err != nil {
			return fmt.Errorf("notify %s: %w", r.UserID.Hex(), err)
		}
	}
	return nil
}
