package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/activityteams/internal/app/system/txn"
	"github.com/dalemusser/activityteams/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestRun_NilClientRunsDirectly(t *testing.T) {
	calls := 0
	err := txn.Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected fn to run once, ran %d times", calls)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := txn.Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRun_CommitsAndAborts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_scratch")
	// Collections must exist before a transaction writes to them on older servers.
	if _, err := coll.InsertOne(ctx, bson.M{"seed": true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n, _ := coll.CountDocuments(ctx, bson.M{"n": 1}); n != 1 {
		t.Errorf("expected committed write, found %d", n)
	}

	abort := errors.New("abort")
	err = txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"n": 2}); err != nil {
			return err
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort, got %v", err)
	}

	// Standalone servers run fn without a transaction, so the write stays.
	n, _ := coll.CountDocuments(ctx, bson.M{"n": 2})
	if n > 1 {
		t.Errorf("write applied %d times", n)
	}
}
