// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/activityteams/internal/app/system/status"
	"github.com/dalemusser/activityteams/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateTeamName = errors.New("a team with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_teams")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// GetMany loads teams by ID. Missing IDs are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Team, error) {
	out := make(map[primitive.ObjectID]models.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	for _, t := range teams {
		out[t.ID] = t
	}
	return out, nil
}

// List returns all teams ordered by case-folded name.
func (s *Store) List(ctx context.Context) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// modelFilter matches teams without a model restriction or restricted to resModel.
func modelFilter(resModel string) bson.M {
	return bson.M{"$or": []bson.M{
		{"res_models": bson.M{"$exists": false}},
		{"res_models": bson.M{"$size": 0}},
		{"res_models": resModel},
	}}
}

// activeFilter skips archived teams.
var activeFilter = bson.M{"status": bson.M{"$ne": status.Disabled}}

// ListForModel returns the active teams that may hold activities of resModel.
// An empty resModel returns every active team.
func (s *Store) ListForModel(ctx context.Context, resModel string) ([]models.Team, error) {
	filter := activeFilter
	if resModel != "" {
		filter = bson.M{"$and": []bson.M{activeFilter, modelFilter(resModel)}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// FirstForModel returns the first active team among teamIDs that applies to
// resModel, in creation order (ascending _id). Returns mongo.ErrNoDocuments
// when none match.
func (s *Store) FirstForModel(ctx context.Context, teamIDs []primitive.ObjectID, resModel string) (models.Team, error) {
	if len(teamIDs) == 0 {
		return models.Team{}, mongo.ErrNoDocuments
	}
	and := []bson.M{{"_id": bson.M{"$in": teamIDs}}, activeFilter}
	if resModel != "" {
		and = append(and, modelFilter(resModel))
	}
	filter := bson.M{"$and": and}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var t models.Team
	if err := s.c.FindOne(ctx, filter, opts).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Name = strings.TrimSpace(t.Name)
	t.NameCI = text.Fold(t.Name)
	if t.ResModels == nil {
		t.ResModels = []string{}
	}
	if t.Status == "" {
		t.Status = status.Active
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateTeamName
		}
		return models.Team{}, err
	}
	return t, nil
}

// TeamUpdate holds the editable team fields. Nil pointers leave a field unchanged.
type TeamUpdate struct {
	Name      *string
	UserID    *primitive.ObjectID // default responsible; zero ObjectID clears it
	ResModels *[]string
	Status    *string // status.Active or status.Disabled
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd TeamUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		name := strings.TrimSpace(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.UserID != nil {
		if upd.UserID.IsZero() {
			unset["user_id"] = ""
		} else {
			set["user_id"] = *upd.UserID
		}
	}
	if upd.ResModels != nil {
		resModels := *upd.ResModels
		if resModels == nil {
			resModels = []string{}
		}
		set["res_models"] = resModels
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateTeamName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a team by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
