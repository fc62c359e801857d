// internal/app/store/channels/channelstore.go
package channelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DirectName is the stored name of every direct channel. Clients render the
// other participant's name instead.
const DirectName = "Direct"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("channels")}
}

// PairKey is the canonical form of an unordered pair of user ids.
func PairKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// GetOrCreateDirect returns the direct channel between a and b, creating it
// when absent. (a, b) and (b, a) resolve to the same channel. When two
// callers race, the unique index on pair_key admits one insert and the
// loser reads the winner's channel back.
func (s *Store) GetOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (models.Channel, error) {
	if a.IsZero() || b.IsZero() {
		return models.Channel{}, fmt.Errorf("%w: both participants are required", errs.ErrValidation)
	}
	if a == b {
		return models.Channel{}, fmt.Errorf("%w: cannot create a direct channel with yourself", errs.ErrValidation)
	}
	key := PairKey(a, b)

	ch, err := s.findByPairKey(ctx, key)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return models.Channel{}, err
	}

	now := time.Now().UTC()
	ch = models.Channel{
		ID:         primitive.NewObjectID(),
		Name:       DirectName,
		Type:       models.ChannelDirect,
		Members:    []primitive.ObjectID{a, b},
		DirectPair: []primitive.ObjectID{a, b},
		PairKey:    key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return s.findByPairKey(ctx, key)
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// FindDirect returns the existing direct channel between a and b, or
// errs.ErrNotFound.
func (s *Store) FindDirect(ctx context.Context, a, b primitive.ObjectID) (models.Channel, error) {
	return s.findByPairKey(ctx, PairKey(a, b))
}

func (s *Store) findByPairKey(ctx context.Context, key string) (models.Channel, error) {
	var ch models.Channel
	err := s.c.FindOne(ctx, bson.M{"pair_key": key}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Channel{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// CreateGroup creates a group channel with the creator as its only member
// and admin. Names are not unique.
func (s *Store) CreateGroup(ctx context.Context, creator primitive.ObjectID, name string) (models.Channel, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Channel{}, fmt.Errorf("%w: channel name is required", errs.ErrValidation)
	}
	if creator.IsZero() {
		return models.Channel{}, fmt.Errorf("%w: creator is required", errs.ErrValidation)
	}
	now := time.Now().UTC()
	ch := models.Channel{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Type:      models.ChannelGroup,
		Members:   []primitive.ObjectID{creator},
		Admins:    []primitive.ObjectID{creator},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// AddMembers adds users to a group channel. Only a channel admin may add
// members; direct channels never change membership.
func (s *Store) AddMembers(ctx context.Context, channelID, actorID primitive.ObjectID, userIDs []primitive.ObjectID) (models.Channel, error) {
	if len(userIDs) == 0 {
		return models.Channel{}, fmt.Errorf("%w: no users to add", errs.ErrValidation)
	}
	var ch models.Channel
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": channelID, "type": models.ChannelGroup, "admins": actorID},
		bson.M{
			"$addToSet": bson.M{"members": bson.M{"$each": userIDs}},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ch)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Channel{}, err
	}

	cur, err := s.GetForMember(ctx, channelID, actorID)
	if err != nil {
		return models.Channel{}, err
	}
	if cur.Type != models.ChannelGroup {
		return models.Channel{}, fmt.Errorf("%w: direct channel membership is fixed", errs.ErrValidation)
	}
	return models.Channel{}, errs.ErrForbidden
}

// ListForUser returns every channel userID belongs to, most recently
// active first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Channel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetForMember returns the channel if userID is a member. Non-members get
// errs.ErrNotFound, the same as for a channel that does not exist.
func (s *Store) GetForMember(ctx context.Context, channelID, userID primitive.ObjectID) (models.Channel, error) {
	var ch models.Channel
	err := s.c.FindOne(ctx, bson.M{"_id": channelID, "members": userID}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Channel{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// IsMember reports whether userID belongs to the channel.
func (s *Store) IsMember(ctx context.Context, channelID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": channelID, "members": userID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Touch bumps updated_at so the channel sorts first in ListForUser.
func (s *Store) Touch(ctx context.Context, channelID primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": channelID, "updated_at": bson.M{"$lt": at}},
		bson.M{"$set": bson.M{"updated_at": at}})
	return err
}
