package teamassign

import (
	"context"
	"errors"

	teammemberstore "github.com/dalemusser/activityteams/internal/app/store/teammembers"
	teamstore "github.com/dalemusser/activityteams/internal/app/store/teams"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StoreDirectory implements Directory over the Mongo stores.
type StoreDirectory struct {
	Teams   *teamstore.Store
	Members *teammemberstore.Store
	Users   *userstore.Store
}

// NewStoreDirectory builds a Directory from the team, membership and user stores.
func NewStoreDirectory(teams *teamstore.Store, members *teammemberstore.Store, users *userstore.Store) *StoreDirectory {
	return &StoreDirectory{Teams: teams, Members: members, Users: users}
}

func (d *StoreDirectory) Team(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	return d.Teams.GetByID(ctx, id)
}

func (d *StoreDirectory) TeamMemberIDs(ctx context.Context, teamID primitive.ObjectID, includeInactive bool) ([]primitive.ObjectID, error) {
	return d.Members.UserIDs(ctx, teamID, includeInactive)
}

func (d *StoreDirectory) UserTeamIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return d.Members.TeamIDsForUser(ctx, userID)
}

func (d *StoreDirectory) FirstTeamForModel(ctx context.Context, teamIDs []primitive.ObjectID, resModel string) (models.Team, bool, error) {
	t, err := d.Teams.FirstForModel(ctx, teamIDs, resModel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, false, nil
	}
	if err != nil {
		return models.Team{}, false, err
	}
	return t, true, nil
}

func (d *StoreDirectory) TeamsForModel(ctx context.Context, resModel string) ([]models.Team, error) {
	return d.Teams.ListForModel(ctx, resModel)
}

func (d *StoreDirectory) UserName(ctx context.Context, id primitive.ObjectID) (string, error) {
	u, err := d.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return id.Hex(), nil
	}
	if err != nil {
		return "", err
	}
	return u.FullName, nil
}
