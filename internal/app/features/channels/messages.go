// internal/app/features/channels/messages.go
package channels

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/linguashift/internal/app/store/audit"
	messagestore "github.com/dalemusser/linguashift/internal/app/store/messages"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// contentInput is the replaceable part of a message as clients send it.
type contentInput struct {
	TextOriginal   string              `json:"textOriginal"`
	TextSimplified *string             `json:"textSimplified"`
	UsedSimplified bool                `json:"usedSimplified"`
	JargonScore    float64             `json:"jargonScore"`
	JargonSpans    []models.JargonSpan `json:"jargonSpans"`
}

func (c contentInput) content() models.MessageContent {
	return models.MessageContent{
		TextOriginal:   c.TextOriginal,
		TextSimplified: c.TextSimplified,
		UsedSimplified: c.UsedSimplified,
		JargonScore:    c.JargonScore,
		JargonSpans:    c.JargonSpans,
	}
}

type sendInput struct {
	contentInput
	ThreadRootID string              `json:"threadRootId"`
	Attachments  []models.Attachment `json:"attachments"`
	Audience     string              `json:"audience"`
	Tone         string              `json:"tone"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/channels/{id}/messages                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMessages lists the channel ledger oldest first. Clients poll it.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Channels.GetForMember(ctx, chID, uid); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	msgs, err := h.Messages.List(ctx, chID)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, viewOf(m))
	}
	jsonapi.WriteJSON(w, http.StatusOK, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/channels/{id}/messages                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in sendInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	d := messagestore.Draft{
		MessageContent: in.content(),
		Attachments:    in.Attachments,
		Audience:       strings.TrimSpace(in.Audience),
		Tone:           strings.TrimSpace(in.Tone),
	}
	if in.ThreadRootID != "" {
		root, err := primitive.ObjectIDFromHex(in.ThreadRootID)
		if err != nil {
			jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest, "threadRootId is invalid")
			return
		}
		d.ThreadRootID = &root
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Messages.Append(ctx, chID, uid, d)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	// Recency only drives channel list order; the message is already stored.
	if err := h.Channels.Touch(ctx, chID, m.CreatedAt); err != nil {
		h.Log.Warn("channel recency update failed",
			zap.String("channel_id", chID.Hex()), zap.Error(err))
	}
	jsonapi.WriteJSON(w, http.StatusCreated, viewOf(m))
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /api/channels/{id}/messages/{mid}                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	msgID, ok := idParam(w, r, "mid")
	if !ok {
		return
	}
	var in contentInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Messages.Edit(ctx, chID, msgID, uid, in.content())
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.MessageChanged(ctx, r, audit.EventMessageEdited, uid, chID, msgID)
	jsonapi.WriteJSON(w, http.StatusOK, viewOf(m))
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/channels/{id}/messages/{mid}                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	msgID, ok := idParam(w, r, "mid")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Messages.SoftDelete(ctx, chID, msgID, uid)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.MessageChanged(ctx, r, audit.EventMessageDeleted, uid, chID, msgID)
	jsonapi.WriteJSON(w, http.StatusOK, viewOf(m))
}
