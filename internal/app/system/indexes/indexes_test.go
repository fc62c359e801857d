package indexes_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/indexes"
	"github.com/dalemusser/linguashift/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, ctx context.Context, c *mongo.Collection) map[string]bson.M {
	t.Helper()
	cur, err := c.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":         {"uniq_users_email", "idx_users_org_nameci_id"},
		"organizations": {"idx_orgs_members", "idx_orgs_nameci__id"},
		"channels":      {"idx_channels_members_updated", "uniq_channels_pairkey"},
		"messages":      {"idx_messages_channel_created_id", "idx_messages_thread_created"},
		"audit_events":  {"idx_audit_timestamp", "idx_audit_org_timestamp", "idx_audit_user_timestamp", "idx_audit_category_type_timestamp"},
	}

	for coll, names := range expected {
		got := indexNames(t, ctx, db.Collection(coll))
		for _, name := range names {
			if _, ok := got[name]; !ok {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("legacy_email"),
	}); err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, ctx, users)
	if _, ok := got["legacy_email"]; ok {
		t.Error("legacy index should have been replaced")
	}
	if _, ok := got["uniq_users_email"]; !ok {
		t.Error("expected uniq_users_email after rename")
	}
}

func TestPairKeyIndex_AllowsManyGroupChannels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	channels := db.Collection("channels")
	now := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := channels.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "type": "group", "created_at": now}); err != nil {
			t.Fatalf("group channel %d insert failed: %v", i, err)
		}
	}

	if _, err := channels.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "type": "direct", "pair_key": "a:b"}); err != nil {
		t.Fatalf("first direct insert failed: %v", err)
	}
	_, err := channels.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "type": "direct", "pair_key": "a:b"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("second direct insert err = %v, want duplicate key", err)
	}
}
