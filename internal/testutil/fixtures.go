package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calls accumulate on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization inserts an organization with no members or glossary.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Members:   []primitive.ObjectID{},
		Glossary:  []models.GlossaryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser inserts a member user and adds them to the organization's
// member list.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.createUser(ctx, name, email, models.RoleMember, orgID)
}

// CreateAdmin inserts an admin user in the organization.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.createUser(ctx, name, email, models.RoleAdmin, orgID)
}

func (f *Fixtures) createUser(ctx context.Context, name, email, role string, orgID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Email:          email,
		Role:           role,
		OrganizationID: orgID,
		AudiencePreset: models.DefaultAudience,
		TonePreset:     models.DefaultTone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	if _, err := f.db.Collection("organizations").UpdateOne(ctx,
		bson.M{"_id": orgID},
		bson.M{"$addToSet": bson.M{"members": user.ID}},
	); err != nil {
		f.t.Fatalf("failed to add test user to organization: %v", err)
	}
	return user
}

// CreateGroupChannel inserts a group channel whose first member is its admin.
func (f *Fixtures) CreateGroupChannel(ctx context.Context, name string, members ...primitive.ObjectID) models.Channel {
	f.t.Helper()

	now := time.Now().UTC()
	ch := models.Channel{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Type:      models.ChannelGroup,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(members) > 0 {
		ch.Admins = []primitive.ObjectID{members[0]}
	}
	if _, err := f.db.Collection("channels").InsertOne(ctx, ch); err != nil {
		f.t.Fatalf("failed to create test channel: %v", err)
	}
	return ch
}

// CreateMessage inserts a plain message (no spans) at the given time.
func (f *Fixtures) CreateMessage(ctx context.Context, channelID, senderID primitive.ObjectID, textOriginal string, at time.Time) models.Message {
	f.t.Helper()

	m := models.Message{
		ID:        primitive.NewObjectID(),
		ChannelID: channelID,
		SenderID:  senderID,
		MessageContent: models.MessageContent{
			TextOriginal: textOriginal,
			JargonSpans:  []models.JargonSpan{},
		},
		CreatedAt: at.UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
