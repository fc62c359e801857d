// internal/app/features/channels/handler.go
package channels

import (
	"net/http"
	"time"

	channelstore "github.com/dalemusser/linguashift/internal/app/store/channels"
	messagestore "github.com/dalemusser/linguashift/internal/app/store/messages"
	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/auditlog"
	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Channels *channelstore.Store
	Messages *messagestore.Store
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger, opts ...messagestore.Option) *Handler {
	return &Handler{
		Channels: channelstore.New(db),
		Messages: messagestore.New(db, opts...),
		Users:    userstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}

// messageView is a ledger entry as clients see it. Deleted messages keep
// their position but carry no text.
type messageView struct {
	ID             string              `json:"id"`
	ChannelID      string              `json:"channelId"`
	SenderID       string              `json:"senderId"`
	TextOriginal   string              `json:"textOriginal"`
	TextSimplified *string             `json:"textSimplified,omitempty"`
	UsedSimplified bool                `json:"usedSimplified"`
	JargonScore    float64             `json:"jargonScore"`
	JargonSpans    []models.JargonSpan `json:"jargonSpans"`
	ThreadRootID   string              `json:"threadRootId,omitempty"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
	Audience       string              `json:"audience,omitempty"`
	Tone           string              `json:"tone,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	EditedAt       *time.Time          `json:"editedAt,omitempty"`
	DeletedAt      *time.Time          `json:"deletedAt,omitempty"`
	Redacted       bool                `json:"redacted,omitempty"`
}

func viewOf(m models.Message) messageView {
	v := messageView{
		ID:             m.ID.Hex(),
		ChannelID:      m.ChannelID.Hex(),
		SenderID:       m.SenderID.Hex(),
		TextOriginal:   m.TextOriginal,
		TextSimplified: m.TextSimplified,
		UsedSimplified: m.UsedSimplified,
		JargonScore:    m.JargonScore,
		JargonSpans:    m.JargonSpans,
		Attachments:    m.Attachments,
		Audience:       m.Audience,
		Tone:           m.Tone,
		CreatedAt:      m.CreatedAt,
		EditedAt:       m.EditedAt,
		DeletedAt:      m.DeletedAt,
	}
	if m.ThreadRootID != nil {
		v.ThreadRootID = m.ThreadRootID.Hex()
	}
	if v.JargonSpans == nil {
		v.JargonSpans = []models.JargonSpan{}
	}
	if m.DeletedAt != nil {
		v.Redacted = true
		v.TextOriginal = ""
		v.TextSimplified = nil
		v.UsedSimplified = false
		v.JargonScore = 0
		v.JargonSpans = []models.JargonSpan{}
		v.Attachments = nil
	}
	return v
}

// caller returns the signed-in user's id or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return primitive.NilObjectID, false
	}
	return uid, true
}

// idParam parses a hex ObjectID URL parameter. Malformed ids are reported
// as not found.
func idParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		jsonapi.WriteStatus(w, http.StatusNotFound, jsonapi.CodeNotFound, "not found")
		return primitive.NilObjectID, false
	}
	return oid, true
}
