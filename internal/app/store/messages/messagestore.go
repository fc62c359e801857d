// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Draft is everything a sender supplies for a new message.
type Draft struct {
	models.MessageContent
	ThreadRootID *primitive.ObjectID
	Attachments  []models.Attachment
	Audience     string
	Tone         string
}

type Store struct {
	c        *mongo.Collection
	channels *mongo.Collection
	enforce  bool
	now      func() time.Time
}

type Option func(*Store)

// EnforceMembership controls whether Append rejects senders that are not
// channel members. On by default.
func EnforceMembership(on bool) Option {
	return func(s *Store) { s.enforce = on }
}

// WithClock overrides the time source used for created/edited/deleted
// stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		c:        db.Collection("messages"),
		channels: db.Collection("channels"),
		enforce:  true,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Append stores a new message at the end of the channel's ledger.
func (s *Store) Append(ctx context.Context, channelID, senderID primitive.ObjectID, d Draft) (models.Message, error) {
	content, err := ValidateContent(d.MessageContent)
	if err != nil {
		return models.Message{}, err
	}
	if channelID.IsZero() || senderID.IsZero() {
		return models.Message{}, fmt.Errorf("%w: channel and sender are required", errs.ErrValidation)
	}

	if s.enforce {
		n, err := s.channels.CountDocuments(ctx, bson.M{"_id": channelID, "members": senderID},
			options.Count().SetLimit(1))
		if err != nil {
			return models.Message{}, err
		}
		if n == 0 {
			return models.Message{}, fmt.Errorf("%w: sender is not a member of the channel", errs.ErrForbidden)
		}
	}

	if d.ThreadRootID != nil {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": *d.ThreadRootID, "channel_id": channelID},
			options.Count().SetLimit(1))
		if err != nil {
			return models.Message{}, err
		}
		if n == 0 {
			return models.Message{}, fmt.Errorf("%w: thread root is not in this channel", errs.ErrValidation)
		}
	}

	m := models.Message{
		ID:             primitive.NewObjectID(),
		ChannelID:      channelID,
		SenderID:       senderID,
		MessageContent: content,
		ThreadRootID:   d.ThreadRootID,
		Attachments:    d.Attachments,
		Audience:       d.Audience,
		Tone:           d.Tone,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// Edit replaces the content of a message as one unit and stamps edited_at.
// Only the sender may edit, and deleted messages cannot be edited. Position
// in the ledger is unchanged.
func (s *Store) Edit(ctx context.Context, channelID, messageID, editorID primitive.ObjectID, c models.MessageContent) (models.Message, error) {
	content, err := ValidateContent(c)
	if err != nil {
		return models.Message{}, err
	}

	set := bson.M{
		"text_original":   content.TextOriginal,
		"used_simplified": content.UsedSimplified,
		"jargon_score":    content.JargonScore,
		"jargon_spans":    content.JargonSpans,
		"edited_at":       s.now().UTC(),
	}
	update := bson.M{"$set": set}
	if content.TextSimplified != nil {
		set["text_simplified"] = *content.TextSimplified
	} else {
		update["$unset"] = bson.M{"text_simplified": ""}
	}

	var m models.Message
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        messageID,
			"channel_id": channelID,
			"sender_id":  editorID,
			"deleted_at": bson.M{"$exists": false},
		},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, err
	}
	m, err = s.classifyMiss(ctx, channelID, messageID, editorID)
	if err != nil {
		return models.Message{}, err
	}
	if m.DeletedAt != nil {
		return models.Message{}, fmt.Errorf("%w: message was deleted", errs.ErrNotFound)
	}
	return models.Message{}, errs.ErrNotFound
}

// SoftDelete stamps deleted_at. Content stays in storage and the message
// keeps its position. Deleting an already deleted message returns it
// unchanged.
func (s *Store) SoftDelete(ctx context.Context, channelID, messageID, authorID primitive.ObjectID) (models.Message, error) {
	var m models.Message
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        messageID,
			"channel_id": channelID,
			"sender_id":  authorID,
			"deleted_at": bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{"deleted_at": s.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, err
	}
	return s.classifyMiss(ctx, channelID, messageID, authorID)
}

// classifyMiss explains why a sender-filtered update matched nothing. It
// returns the message only when actorID is its sender.
func (s *Store) classifyMiss(ctx context.Context, channelID, messageID, actorID primitive.ObjectID) (models.Message, error) {
	var m models.Message
	err := s.c.FindOne(ctx, bson.M{"_id": messageID, "channel_id": channelID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if m.SenderID != actorID {
		return models.Message{}, fmt.Errorf("%w: only the sender can change a message", errs.ErrForbidden)
	}
	return m, nil
}

// GetByID loads one message of a channel.
func (s *Store) GetByID(ctx context.Context, channelID, messageID primitive.ObjectID) (models.Message, error) {
	var m models.Message
	err := s.c.FindOne(ctx, bson.M{"_id": messageID, "channel_id": channelID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// List returns the channel's messages oldest first, soft-deleted ones
// included. Ties on created_at are broken by _id.
func (s *Store) List(ctx context.Context, channelID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
