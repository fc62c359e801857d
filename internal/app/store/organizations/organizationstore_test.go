package organizationstore_test

import (
	"errors"
	"testing"

	organizationstore "github.com/dalemusser/linguashift/internal/app/store/organizations"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/linguashift/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndSetOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	placeholder := primitive.NewObjectID()
	org, err := store.Create(ctx, "  Acme   Corp ", placeholder)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if org.Name != "Acme Corp" {
		t.Errorf("Name = %q, want %q", org.Name, "Acme Corp")
	}
	if org.OwnerID != placeholder {
		t.Error("expected provisional owner to be stored")
	}

	owner := primitive.NewObjectID()
	if err := store.SetOwner(ctx, org.ID, owner); err != nil {
		t.Fatalf("SetOwner failed: %v", err)
	}
	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OwnerID != owner {
		t.Errorf("OwnerID = %v, want %v", got.OwnerID, owner)
	}
	if len(got.Members) != 1 || got.Members[0] != owner {
		t.Errorf("Members = %v, want [owner]", got.Members)
	}

	// Idempotent on members.
	if err := store.SetOwner(ctx, org.ID, owner); err != nil {
		t.Fatalf("second SetOwner failed: %v", err)
	}
	got, _ = store.GetByID(ctx, org.ID)
	if len(got.Members) != 1 {
		t.Errorf("expected 1 member after repeat, got %d", len(got.Members))
	}
}

func TestStore_Create_RequiresName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "   ", primitive.NewObjectID()); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestStore_GetForMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	u := fx.CreateUser(ctx, "Ann", "ann@example.com", org.ID)

	got, err := store.GetForMember(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetForMember failed: %v", err)
	}
	if got.ID != org.ID {
		t.Errorf("got org %v, want %v", got.ID, org.ID)
	}

	if _, err := store.GetForMember(ctx, primitive.NewObjectID()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for stranger, got %v", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestGlossary_AddUpdateRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	u := fx.CreateUser(ctx, "Ann", "ann@example.com", org.ID)

	g, err := store.AddGlossaryEntry(ctx, org.ID, u.ID, models.GlossaryEntry{
		Term: " QBR ", PlainLanguage: "quarterly business review",
	})
	if err != nil {
		t.Fatalf("AddGlossaryEntry failed: %v", err)
	}
	if len(g) != 1 || g[0].Term != "QBR" || g[0].TermCI == "" {
		t.Fatalf("unexpected glossary after add: %+v", g)
	}

	g, err = store.UpdateGlossaryEntry(ctx, org.ID, u.ID, "qbr", models.GlossaryEntry{
		PlainLanguage: "quarterly review", Explanation: "held every three months",
	})
	if err != nil {
		t.Fatalf("UpdateGlossaryEntry failed: %v", err)
	}
	if len(g) != 1 || g[0].Term != "QBR" || g[0].PlainLanguage != "quarterly review" || g[0].Explanation != "held every three months" {
		t.Fatalf("unexpected glossary after update: %+v", g)
	}

	g, err = store.RemoveGlossaryEntry(ctx, org.ID, u.ID, "Qbr")
	if err != nil {
		t.Fatalf("RemoveGlossaryEntry failed: %v", err)
	}
	if len(g) != 0 {
		t.Fatalf("expected empty glossary, got %+v", g)
	}

	stored, err := store.Glossary(ctx, org.ID)
	if err != nil {
		t.Fatalf("Glossary failed: %v", err)
	}
	if stored == nil || len(stored) != 0 {
		t.Errorf("expected empty non-nil glossary, got %#v", stored)
	}
}

func TestGlossary_DuplicateTermCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	u := fx.CreateUser(ctx, "Ann", "ann@example.com", org.ID)

	if _, err := store.AddGlossaryEntry(ctx, org.ID, u.ID, models.GlossaryEntry{Term: "QBR", PlainLanguage: "x"}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	_, err := store.AddGlossaryEntry(ctx, org.ID, u.ID, models.GlossaryEntry{Term: "qbr", PlainLanguage: "y"})
	if !errors.Is(err, organizationstore.ErrDuplicateTerm) {
		t.Errorf("expected ErrDuplicateTerm, got %v", err)
	}
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected duplicate to be a validation error, got %v", err)
	}
}

func TestGlossary_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	other := fx.CreateOrganization(ctx, "Globex")
	member := fx.CreateUser(ctx, "Ann", "ann@example.com", org.ID)
	outsider := fx.CreateUser(ctx, "Bob", "bob@example.com", other.ID)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"missing plain language", func() error {
			_, err := store.AddGlossaryEntry(ctx, org.ID, member.ID, models.GlossaryEntry{Term: "ARR"})
			return err
		}, errs.ErrValidation},
		{"missing term", func() error {
			_, err := store.AddGlossaryEntry(ctx, org.ID, member.ID, models.GlossaryEntry{PlainLanguage: "x"})
			return err
		}, errs.ErrValidation},
		{"non-member add", func() error {
			_, err := store.AddGlossaryEntry(ctx, org.ID, outsider.ID, models.GlossaryEntry{Term: "ARR", PlainLanguage: "x"})
			return err
		}, errs.ErrForbidden},
		{"update missing term", func() error {
			_, err := store.UpdateGlossaryEntry(ctx, org.ID, member.ID, "nope", models.GlossaryEntry{PlainLanguage: "x"})
			return err
		}, errs.ErrNotFound},
		{"remove missing term", func() error {
			_, err := store.RemoveGlossaryEntry(ctx, org.ID, member.ID, "nope")
			return err
		}, errs.ErrNotFound},
		{"non-member remove", func() error {
			_, err := store.RemoveGlossaryEntry(ctx, org.ID, outsider.ID, "nope")
			return err
		}, errs.ErrForbidden},
		{"unknown organization", func() error {
			_, err := store.AddGlossaryEntry(ctx, primitive.NewObjectID(), member.ID, models.GlossaryEntry{Term: "ARR", PlainLanguage: "x"})
			return err
		}, errs.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}
