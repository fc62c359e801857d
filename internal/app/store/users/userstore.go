// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DirectoryLimit caps ListByOrganization.
	DirectoryLimit = 100
	// SearchLimit caps Search.
	SearchLimit = 20
	// SearchMinLen is the shortest query Search will run.
	SearchMinLen = 2
)

// ErrDuplicateEmail is returned when attempting to create a user with an
// email that already exists. It wraps errs.ErrValidation.
var ErrDuplicateEmail = fmt.Errorf("%w: a user with this email already exists", errs.ErrValidation)

var errBadRole = fmt.Errorf(`%w: role must be "member"|"admin"`, errs.ErrValidation)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// summaryProjection selects the fields of models.UserSummary.
var summaryProjection = bson.M{"_id": 1, "name": 1, "email": 1, "department": 1, "title": 1}

// Create inserts a new user after normalizing and validating fields. It
// does not touch the organization's member list.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Department = strings.TrimSpace(u.Department)
	u.Title = strings.TrimSpace(u.Title)
	u.AudiencePreset = normalize.Preset(u.AudiencePreset, models.DefaultAudience)
	u.TonePreset = normalize.Preset(u.TonePreset, models.DefaultTone)
	if u.Role == "" {
		u.Role = models.RoleMember
	}

	switch u.Role {
	case models.RoleMember, models.RoleAdmin:
	default:
		return models.User{}, errBadRole
	}
	if u.Name == "" || u.Email == "" {
		return models.User{}, fmt.Errorf("%w: name and email are required", errs.ErrValidation)
	}
	if u.OrganizationID.IsZero() {
		return models.User{}, fmt.Errorf("%w: organization is required", errs.ErrValidation)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a user. Used to roll back a registration that could not
// complete outside a transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByOrganization returns up to DirectoryLimit members of an
// organization ordered by name.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.UserSummary, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(DirectoryLimit)
	return s.findSummaries(ctx, bson.M{"organization_id": orgID}, opts)
}

// Search matches q as a case-insensitive substring of name or email within
// one organization. Queries shorter than SearchMinLen return an empty list
// without touching the database.
func (s *Store) Search(ctx context.Context, orgID primitive.ObjectID, q string) ([]models.UserSummary, error) {
	q = normalize.QueryParam(q)
	if len([]rune(q)) < SearchMinLen {
		return []models.UserSummary{}, nil
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{
		"organization_id": orgID,
		"$or": []bson.M{
			{"name": re},
			{"email": re},
		},
	}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(SearchLimit)
	return s.findSummaries(ctx, filter, opts)
}

func (s *Store) findSummaries(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.UserSummary, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.UserSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
