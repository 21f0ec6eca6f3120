package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/activityteams/internal/domain/models"
)

// ErrAssignationDenied is returned when the new assignee may not handle an activity.
var ErrAssignationDenied = errors.New("assignation denied")

// AccessChecker decides whether assignee may be given act.
// assignee is nil when the user does not exist.
type AccessChecker interface {
	CheckAssignation(ctx context.Context, act models.Activity, assignee *models.User) error
}

// ActiveAssignee allows any existing, active user.
type ActiveAssignee struct{}

func (ActiveAssignee) CheckAssignation(_ context.Context, _ models.Activity, assignee *models.User) error {
	if assignee == nil {
		return fmt.Errorf("%w: assigned user does not exist", ErrAssignationDenied)
	}
	if !assignee.IsActive() {
		return fmt.Errorf("%w: assigned user %s has no access to the document and is not able to handle this activity",
			ErrAssignationDenied, assignee.FullName)
	}
	return nil
}
