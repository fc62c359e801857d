// internal/app/features/accounts/login.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const badCredentials = "invalid email or password"

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited", zap.String("reason", reason))
			h.AuditLog.LoginFailedRateLimit(ctx, r, email)
			jsonapi.WriteStatus(w, http.StatusTooManyRequests, jsonapi.CodeTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, badCredentials)
		return
	}
	if err != nil {
		h.Log.Error("login lookup failed", zap.Error(err))
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.OrganizationID, email)
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, badCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.OrganizationID, email)
	h.signIn(w, r, *u, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/logout                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogout clears the session cookie. Bearer tokens are stateless and
// simply expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
