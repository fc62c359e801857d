package channelstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	channelstore "github.com/dalemusser/linguashift/internal/app/store/channels"
	"github.com/dalemusser/linguashift/internal/app/system/indexes"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/linguashift/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*mongo.Database, *channelstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db, channelstore.New(db)
}

func TestPairKey_Unordered(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	if channelstore.PairKey(a, b) != channelstore.PairKey(b, a) {
		t.Error("PairKey must not depend on argument order")
	}
}

func TestGetOrCreateDirect_SameChannelEitherOrder(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	first, err := store.GetOrCreateDirect(ctx, a, b)
	if err != nil {
		t.Fatalf("GetOrCreateDirect(a, b) failed: %v", err)
	}
	second, err := store.GetOrCreateDirect(ctx, b, a)
	if err != nil {
		t.Fatalf("GetOrCreateDirect(b, a) failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same channel, got %v and %v", first.ID, second.ID)
	}
	if first.Type != models.ChannelDirect || first.Name != channelstore.DirectName {
		t.Errorf("unexpected channel: type=%q name=%q", first.Type, first.Name)
	}
	if len(first.Members) != 2 || len(first.DirectPair) != 2 {
		t.Errorf("expected two members and a pair, got %v / %v", first.Members, first.DirectPair)
	}
}

func TestGetOrCreateDirect_Self(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	if _, err := store.GetOrCreateDirect(ctx, a, a); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestGetOrCreateDirect_ConcurrentCreatesOne(t *testing.T) {
	db, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	const n = 8
	ids := make([]primitive.ObjectID, n)
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a, b
			if i%2 == 1 {
				x, y = b, a
			}
			ch, err := store.GetOrCreateDirect(ctx, x, y)
			if err != nil {
				errCh <- err
				return
			}
			ids[i] = ch.ID
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("GetOrCreateDirect failed: %v", err)
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got %v, want %v", i, ids[i], ids[0])
		}
	}
	count, err := db.Collection("channels").CountDocuments(ctx, bson.M{"pair_key": channelstore.PairKey(a, b)})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 direct channel, found %d", count)
	}
}

func TestCreateGroup(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	ch, err := store.CreateGroup(ctx, creator, "  launch   planning ")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if ch.Name != "launch planning" {
		t.Errorf("Name = %q", ch.Name)
	}
	if ch.Type != models.ChannelGroup {
		t.Errorf("Type = %q, want group", ch.Type)
	}
	if len(ch.Members) != 1 || ch.Members[0] != creator {
		t.Errorf("Members = %v, want [creator]", ch.Members)
	}
	if len(ch.Admins) != 1 || ch.Admins[0] != creator {
		t.Errorf("Admins = %v, want [creator]", ch.Admins)
	}

	// Names are not unique and groups carry no pair key.
	if _, err := store.CreateGroup(ctx, creator, "launch planning"); err != nil {
		t.Errorf("second group with same name failed: %v", err)
	}
	if _, err := store.CreateGroup(ctx, creator, "   "); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestAddMembers(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin, other, newcomer := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	ch, err := store.CreateGroup(ctx, admin, "team")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	got, err := store.AddMembers(ctx, ch.ID, admin, []primitive.ObjectID{other, other})
	if err != nil {
		t.Fatalf("AddMembers failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("expected 2 members, got %v", got.Members)
	}

	if _, err := store.AddMembers(ctx, ch.ID, other, []primitive.ObjectID{newcomer}); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("non-admin member: expected ErrForbidden, got %v", err)
	}
	if _, err := store.AddMembers(ctx, ch.ID, newcomer, []primitive.ObjectID{newcomer}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("non-member: expected ErrNotFound, got %v", err)
	}

	dm, err := store.GetOrCreateDirect(ctx, admin, other)
	if err != nil {
		t.Fatalf("GetOrCreateDirect failed: %v", err)
	}
	if _, err := store.AddMembers(ctx, dm.ID, admin, []primitive.ObjectID{newcomer}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("direct channel: expected ErrValidation, got %v", err)
	}
}

func TestListForUser_MembershipAndOrder(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, other := primitive.NewObjectID(), primitive.NewObjectID()
	older, err := store.CreateGroup(ctx, u, "older")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	newer, err := store.CreateGroup(ctx, u, "newer")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := store.CreateGroup(ctx, other, "not mine"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.Touch(ctx, older.ID, time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	got, err := store.ListForUser(ctx, u)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(got))
	}
	if got[0].ID != older.ID || got[1].ID != newer.ID {
		t.Errorf("expected touched channel first, got %q then %q", got[0].Name, got[1].Name)
	}
}

func TestGetForMemberAndIsMember(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	ch, err := store.CreateGroup(ctx, u, "team")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := store.GetForMember(ctx, ch.ID, u); err != nil {
		t.Errorf("member GetForMember failed: %v", err)
	}
	if _, err := store.GetForMember(ctx, ch.ID, stranger); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("stranger: expected ErrNotFound, got %v", err)
	}

	ok, err := store.IsMember(ctx, ch.ID, u)
	if err != nil || !ok {
		t.Errorf("IsMember(member) = %v, %v", ok, err)
	}
	ok, err = store.IsMember(ctx, ch.ID, stranger)
	if err != nil || ok {
		t.Errorf("IsMember(stranger) = %v, %v", ok, err)
	}
}
