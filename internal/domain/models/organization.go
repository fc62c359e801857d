// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GlossaryEntry maps an organization-specific term or acronym to plain
// language. Entries are embedded in the organization document; they have no
// lifecycle of their own.
type GlossaryEntry struct {
	Term          string `bson:"term" json:"term" toml:"term"`
	TermCI        string `bson:"term_ci" json:"-" toml:"-"` // match key, always stored
	Explanation   string `bson:"explanation,omitempty" json:"explanation,omitempty" toml:"explanation,omitempty"`
	PlainLanguage string `bson:"plain_language" json:"plainLanguage" toml:"plain_language"`
}

// Organization owns the member list and the glossary.
//
// NOTE:
//   - OwnerID is always in Members once registration completes.
//   - At registration the organization is written first with a placeholder
//     owner, then patched once the owning user exists (see accounts feature).
type Organization struct {
	ID       primitive.ObjectID   `bson:"_id" json:"id"`
	Name     string               `bson:"name" json:"name"`
	NameCI   string               `bson:"name_ci" json:"-"`
	OwnerID  primitive.ObjectID   `bson:"owner_id" json:"ownerId"`
	Members  []primitive.ObjectID `bson:"members" json:"members"`
	Glossary []GlossaryEntry      `bson:"glossary" json:"glossary"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
