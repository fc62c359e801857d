// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JargonSpan is a half-open range [Start, End) of code points in a
// message's original text. Confidence is in [0, 1].
type JargonSpan struct {
	Start      int     `bson:"start" json:"start"`
	End        int     `bson:"end" json:"end"`
	Confidence float64 `bson:"confidence" json:"confidence"`
}

// Attachment references an externally stored file. Storage itself is not
// handled here.
type Attachment struct {
	Name      string `bson:"name" json:"name"`
	URL       string `bson:"url" json:"url"`
	MimeType  string `bson:"mime_type,omitempty" json:"mimeType,omitempty"`
	SizeBytes int64  `bson:"size_bytes,omitempty" json:"sizeBytes,omitempty"`
}

// MessageContent is the replaceable unit of a message: what a sender
// composes and what an edit swaps out as a whole.
type MessageContent struct {
	TextOriginal   string       `bson:"text_original" json:"textOriginal"`
	TextSimplified *string      `bson:"text_simplified,omitempty" json:"textSimplified,omitempty"`
	UsedSimplified bool         `bson:"used_simplified" json:"usedSimplified"`
	JargonScore    float64      `bson:"jargon_score" json:"jargonScore"`
	JargonSpans    []JargonSpan `bson:"jargon_spans" json:"jargonSpans"`
}

// Message is a ledger entry in a channel.
//
// NOTE:
//   - Ordering within a channel is CreatedAt ascending (ties by _id) and is
//     never re-derived from EditedAt.
//   - DeletedAt marks a soft delete; content is retained in storage.
type Message struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ChannelID primitive.ObjectID `bson:"channel_id" json:"channelId"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"senderId"`

	MessageContent `bson:",inline"`

	ThreadRootID *primitive.ObjectID `bson:"thread_root_id,omitempty" json:"threadRootId,omitempty"`
	Attachments  []Attachment        `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Audience     string              `bson:"audience,omitempty" json:"audience,omitempty"`
	Tone         string              `bson:"tone,omitempty" json:"tone,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	EditedAt  *time.Time `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
}
