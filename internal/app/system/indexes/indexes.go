// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.

The activity, message and audit collections own their indexes through their
stores' EnsureIndexes methods; this package covers the collections whose
uniqueness rules the team stores depend on.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"partners", ensurePartners},
		{"activity_teams", ensureTeams},
		{"activity_team_members", ensureTeamMembers},
		{"records", ensureRecords},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// Some servers answer IndexOptionsConflict when an index with the same keys
// already exists under another name.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops ex and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return fmt.Errorf("drop %s: %w", ex.Name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)),
		}

		fail := func(err error) {
			if isDuplicateKeyErr(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index, duplicates present on %s",
					coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
		}

		ex, ok := listIndexes(ctx, coll)[sig]
		if !ok {
			_, err := coll.Indexes().CreateOne(ctx, m)
			if isOptionsConflictErr(err) {
				// Lost a race with another creator; reconcile against what is there now.
				ex, ok = listIndexes(ctx, coll)[sig]
				if ok && boolVal(ex.Unique) == boolVal(unique) {
					zap.L().Info("reusing existing index (post-conflict)", fields...)
					continue
				}
				if ok {
					err = recreate(ctx, coll, ex, m)
				}
			}
			if err != nil {
				fail(err)
				continue
			}
			zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
			continue
		}

		switch {
		case boolVal(ex.Unique) != boolVal(unique):
			if err := recreate(ctx, coll, ex, m); err != nil {
				fail(err)
				continue
			}
			zap.L().Info("index dropped and recreated", append(fields, zap.Duration("took", time.Since(start)))...)
		case name != "" && ex.Name != name:
			if err := recreate(ctx, coll, ex, m); err != nil {
				fail(err)
				continue
			}
			zap.L().Info("index renamed", append(fields, zap.String("from", ex.Name))...)
		default:
			zap.L().Debug("reusing existing index", fields...)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Login identity
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		// Member pickers sort by folded name
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_status_fullnameci_id"),
		},
		{
			Keys:    bson.D{{Key: "partner_id", Value: 1}},
			Options: options.Index().SetName("idx_users_partner"),
		},
	})
}

func ensurePartners(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("partners"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_partners_email"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activity_teams"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_teams_nameci").SetUnique(true),
		},
		// Default team lookup by model
		{
			Keys:    bson.D{{Key: "res_models", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_teams_resmodels_nameci"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_user"),
		},
	})
}

func ensureTeamMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activity_team_members"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_teammembers_team_user").SetUnique(true),
		},
		// "Teams of a user" for the default team search
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_teammembers_user_team"),
		},
	})
}

func ensureRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "res_model", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_records_model_id"),
		},
	})
}
