// internal/app/store/organizations/glossary.go
package organizationstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateTerm is returned when a term already exists in the glossary
// under case-insensitive comparison. It wraps errs.ErrValidation.
var ErrDuplicateTerm = fmt.Errorf("%w: term already exists in the glossary", errs.ErrValidation)

// Glossary returns the organization's entries in insertion order. Never nil.
func (s *Store) Glossary(ctx context.Context, orgID primitive.ObjectID) ([]models.GlossaryEntry, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": orgID},
		options.FindOne().SetProjection(bson.M{"glossary": 1})).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if org.Glossary == nil {
		return []models.GlossaryEntry{}, nil
	}
	return org.Glossary, nil
}

// AddGlossaryEntry appends an entry. actorID must be a member of the
// organization. Returns the updated glossary.
func (s *Store) AddGlossaryEntry(ctx context.Context, orgID, actorID primitive.ObjectID, e models.GlossaryEntry) ([]models.GlossaryEntry, error) {
	e, err := prepareEntry(e)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"_id":              orgID,
		"members":          actorID,
		"glossary.term_ci": bson.M{"$ne": e.TermCI},
	}
	update := bson.M{
		"$push": bson.M{"glossary": e},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return s.applyGlossary(ctx, orgID, actorID, e.TermCI, false, filter, update)
}

// UpdateGlossaryEntry replaces the explanation and plain language of the
// entry matching term. The term itself is not renamed.
func (s *Store) UpdateGlossaryEntry(ctx context.Context, orgID, actorID primitive.ObjectID, term string, e models.GlossaryEntry) ([]models.GlossaryEntry, error) {
	e.Term = term
	e, err := prepareEntry(e)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"_id":              orgID,
		"members":          actorID,
		"glossary.term_ci": e.TermCI,
	}
	update := bson.M{"$set": bson.M{
		"glossary.$.explanation":    e.Explanation,
		"glossary.$.plain_language": e.PlainLanguage,
		"updated_at":                time.Now().UTC(),
	}}
	return s.applyGlossary(ctx, orgID, actorID, e.TermCI, true, filter, update)
}

// RemoveGlossaryEntry deletes the entry matching term.
func (s *Store) RemoveGlossaryEntry(ctx context.Context, orgID, actorID primitive.ObjectID, term string) ([]models.GlossaryEntry, error) {
	key := normalize.TermKey(term)
	if key == "" {
		return nil, fmt.Errorf("%w: term is required", errs.ErrValidation)
	}
	filter := bson.M{
		"_id":              orgID,
		"members":          actorID,
		"glossary.term_ci": key,
	}
	update := bson.M{
		"$pull": bson.M{"glossary": bson.M{"term_ci": key}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return s.applyGlossary(ctx, orgID, actorID, key, true, filter, update)
}

// applyGlossary runs one atomic update and, when nothing matched, reads the
// organization back to say why.
func (s *Store) applyGlossary(ctx context.Context, orgID, actorID primitive.ObjectID, key string, termMustExist bool, filter, update bson.M) ([]models.GlossaryEntry, error) {
	var org models.Organization
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"glossary": 1}),
	).Decode(&org)
	if err == nil {
		if org.Glossary == nil {
			org.Glossary = []models.GlossaryEntry{}
		}
		return org.Glossary, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, err := s.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(cur.Members, actorID) {
		return nil, errs.ErrForbidden
	}
	if termMustExist {
		return nil, fmt.Errorf("%w: glossary term", errs.ErrNotFound)
	}
	return nil, ErrDuplicateTerm
}

func prepareEntry(e models.GlossaryEntry) (models.GlossaryEntry, error) {
	e.Term = normalize.Term(e.Term)
	e.TermCI = normalize.TermKey(e.Term)
	e.Explanation = strings.TrimSpace(e.Explanation)
	e.PlainLanguage = strings.TrimSpace(e.PlainLanguage)
	if e.Term == "" {
		return e, fmt.Errorf("%w: term is required", errs.ErrValidation)
	}
	if e.PlainLanguage == "" {
		return e, fmt.Errorf("%w: plainLanguage is required", errs.ErrValidation)
	}
	return e, nil
}
