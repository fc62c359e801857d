// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts an organization whose owner is provisional. Registration
// creates the organization first, then the owning user, then calls
// SetOwner. Names are not unique.
func (s *Store) Create(ctx context.Context, name string, provisionalOwner primitive.ObjectID) (models.Organization, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Organization{}, fmt.Errorf("%w: organization name is required", errs.ErrValidation)
	}
	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   provisionalOwner,
		Members:   []primitive.ObjectID{},
		Glossary:  []models.GlossaryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// SetOwner records the owner and adds them to the members.
func (s *Store) SetOwner(ctx context.Context, orgID, ownerID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": orgID}, bson.M{
		"$set":      bson.M{"owner_id": ownerID, "updated_at": time.Now().UTC()},
		"$addToSet": bson.M{"members": ownerID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AddMember appends a user to the member list (no-op if present).
func (s *Store) AddMember(ctx context.Context, orgID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": orgID}, bson.M{
		"$set":      bson.M{"updated_at": time.Now().UTC()},
		"$addToSet": bson.M{"members": userID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetForMember returns the organization userID belongs to.
func (s *Store) GetForMember(ctx context.Context, userID primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"members": userID}).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Delete removes an organization. Used to roll back a registration that
// could not complete outside a transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
