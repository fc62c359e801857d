// internal/app/features/channels/channels.go
package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/htmlsanitize"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMembersPerRequest bounds one add-members call.
const MaxMembersPerRequest = 50

type createGroupInput struct {
	Name string `json:"name"`
}

type directInput struct {
	UserID string `json:"userId"`
}

type addMembersInput struct {
	UserIDs []string `json:"userIds"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/channels                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	chs, err := h.Channels.ListForUser(ctx, uid)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, chs)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/channels                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var in createGroupInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Channels.CreateGroup(ctx, uid, htmlsanitize.PlainText(in.Name))
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.ChannelCreated(ctx, r, uid, ch.ID, ch.Type)
	jsonapi.WriteJSON(w, http.StatusCreated, ch)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/channels/direct                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDirect returns the direct channel between the caller and another
// user of the same organization, creating it on first use.
func (h *Handler) HandleDirect(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var in directInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	other, err := primitive.ObjectIDFromHex(in.UserID)
	if err != nil {
		jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest, "userId is invalid")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if other != uid {
		if err := h.sameOrganization(ctx, r, other); err != nil {
			jsonapi.WriteError(w, h.Log, err)
			return
		}
	}

	_, findErr := h.Channels.FindDirect(ctx, uid, other)
	ch, err := h.Channels.GetOrCreateDirect(ctx, uid, other)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	if errors.Is(findErr, errs.ErrNotFound) {
		h.AuditLog.ChannelCreated(ctx, r, uid, ch.ID, ch.Type)
	}
	jsonapi.WriteJSON(w, http.StatusOK, ch)
}

// sameOrganization reports errs.ErrNotFound unless userID belongs to the
// caller's organization.
func (h *Handler) sameOrganization(ctx context.Context, r *http.Request, userID primitive.ObjectID) error {
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !authz.InOrg(r, u.OrganizationID) {
		return fmt.Errorf("%w: user not found", errs.ErrNotFound)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/channels/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Channels.GetForMember(ctx, chID, uid)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, ch)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/channels/{id}/members                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in addMembersInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	if len(in.UserIDs) > MaxMembersPerRequest {
		jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest,
			fmt.Sprintf("at most %d users per request", MaxMembersPerRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(in.UserIDs))
	for _, raw := range in.UserIDs {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest, "userIds contains an invalid id")
			return
		}
		if err := h.sameOrganization(ctx, r, oid); err != nil {
			jsonapi.WriteError(w, h.Log, err)
			return
		}
		ids = append(ids, oid)
	}

	ch, err := h.Channels.AddMembers(ctx, chID, uid, ids)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, ch)
}
