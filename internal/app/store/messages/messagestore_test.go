package messagestore_test

import (
	"testing"

	messagestore "github.com/dalemusser/activityteams/internal/app/store/messages"
	"github.com/dalemusser/activityteams/internal/domain/models"
	"github.com/dalemusser/activityteams/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_PostAndListByRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	resID := primitive.NewObjectID()
	first, err := store.Post(ctx, models.Message{ResModel: "crm.lead", ResID: resID, Kind: models.MessageNotification, Subject: "one"})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if first.ID.IsZero() || first.CreatedAt.IsZero() || first.PartnerIDs == nil {
		t.Errorf("defaults not applied: %+v", first)
	}
	if _, err := store.Post(ctx, models.Message{ResModel: "crm.lead", ResID: resID, Kind: models.MessageActivityDone, Subject: "two"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if _, err := store.Post(ctx, models.Message{ResModel: "crm.lead", ResID: primitive.NewObjectID(), Subject: "elsewhere"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	msgs, err := store.ListByRecord(ctx, "crm.lead", resID)
	if err != nil {
		t.Fatalf("ListByRecord failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Subject != "two" || msgs[1].Subject != "one" {
		t.Errorf("expected newest first, got %+v", msgs)
	}
}

func TestStore_Subscribe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	resID := primitive.NewObjectID()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, p := range []primitive.ObjectID{a, b, a} {
		if err := store.Subscribe(ctx, "crm.lead", resID, p); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	got, err := store.Followers(ctx, "crm.lead", resID)
	if err != nil {
		t.Fatalf("Followers failed: %v", err)
	}
	if diff := cmp.Diff([]primitive.ObjectID{a, b}, got); diff != "" {
		t.Errorf("followers mismatch (-want +got):\n%s", diff)
	}
}
