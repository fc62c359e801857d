// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the organization's user directory. Callers only ever see
// users of their own organization.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

// ServeList handles GET /api/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Users.ListByOrganization(ctx, orgID)
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, list)
}

// ServeSearch handles GET /api/users/search?q=. Queries shorter than two
// characters return an empty list.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Users.Search(ctx, orgID, r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error("user search failed", zap.Error(err))
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, list)
}
