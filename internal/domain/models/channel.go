// internal/domain/models/channel.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel types.
const (
	ChannelGroup  = "group"
	ChannelDirect = "direct"
)

// Channel is a conversation space.
//
// NOTE:
//   - For direct channels DirectPair holds exactly two user ids and PairKey
//     holds the same pair in canonical (sorted) form. A unique partial index
//     on pair_key keeps one direct channel per unordered pair.
//   - Admins is only populated for group channels.
type Channel struct {
	ID         primitive.ObjectID   `bson:"_id" json:"id"`
	Name       string               `bson:"name" json:"name"`
	Type       string               `bson:"type" json:"type"`
	Members    []primitive.ObjectID `bson:"members" json:"members"`
	Admins     []primitive.ObjectID `bson:"admins,omitempty" json:"admins,omitempty"`
	DirectPair []primitive.ObjectID `bson:"direct_pair,omitempty" json:"directPair,omitempty"`
	PairKey    string               `bson:"pair_key,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
