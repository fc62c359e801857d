// internal/app/features/accounts/me.go
package accounts

import (
	"context"
	"net/http"

	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
)

// ServeMe handles GET /api/auth/me with the stored account, so preset
// changes show up without signing in again.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, viewOf(*u))
}
