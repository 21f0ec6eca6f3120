package activities

import (
	"context"
	"fmt"

	"github.com/dalemusser/activityteams/internal/app/system/actor"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Create stores new activities on behalf of a.
//
// Missing teams default to a's first team for the activity's model, and a
// team's default responsible user fills an empty member. All activities are
// checked and inserted together; a consistency violation inserts none. Each
// created activity is then announced to its recipients and its assignee
// follows the record.
func (s *Service) Create(ctx context.Context, a actor.Actor, input []models.Activity) ([]models.Activity, error) {
	if len(input) == 0 {
		return nil, nil
	}

	acts := make([]models.Activity, len(input))
	copy(acts, input)
	for i := range acts {
		act := &acts[i]
		if act.ResModel == "" || act.ResID.IsZero() {
			return nil, fmt.Errorf("%w: res_model and res_id are required", ErrInvalidActivity)
		}
		if _, err := s.record(ctx, act.ResModel, act.ResID); err != nil {
			return nil, err
		}
		creator := a.ID
		act.ID = primitive.NilObjectID
		act.State = models.ActivityPlanned
		act.CreatedBy = &creator
		if err := s.engine.ApplyDefaults(ctx, a.ID, act); err != nil {
			return nil, err
		}
	}

	var created []models.Activity
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.engine.Check(ctx, acts); err != nil {
			return err
		}
		var err error
		created, err = s.activities.InsertMany(ctx, acts)
		return err
	})
	if err != nil {
		s.auditRejection(ctx, a, err)
		return nil, err
	}

	for _, act := range created {
		s.audit.ActivityCreated(ctx, a.ID, act.ID, act.TeamID, assignee(act), act.ResModel)
		s.log.Info("activity created",
			zap.String("activity_id", act.ID.Hex()),
			zap.String("res_model", act.ResModel),
			zap.String("actor_id", a.ID.Hex()))

		if err := s.notifyAssigned(ctx, a, act); err != nil {
			return created, err
		}
		if who := assignee(act); who != nil {
			if err := s.subscribe(ctx, a, act, *who); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
