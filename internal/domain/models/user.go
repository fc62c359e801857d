// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default composition presets seeded into a new user and, from there, into
// every Composition Session the user opens.
const (
	DefaultAudience = "PMs"
	DefaultTone     = "Neutral"
)

// User roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User belongs to exactly one organization. Membership is fixed at
// registration; there is no org switching.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"-"` // folded for search
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	Role           string             `bson:"role" json:"role"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	Department     string             `bson:"department,omitempty" json:"department,omitempty"`
	Title          string             `bson:"title,omitempty" json:"title,omitempty"`

	AudiencePreset string `bson:"audience_preset" json:"audiencePreset"`
	TonePreset     string `bson:"tone_preset" json:"tonePreset"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserSummary is the public directory view of a user.
type UserSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Title      string             `bson:"title,omitempty" json:"title,omitempty"`
}
