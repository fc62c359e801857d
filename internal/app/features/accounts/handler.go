// internal/app/features/accounts/handler.go
package accounts

import (
	"net/http"
	"time"

	organizationstore "github.com/dalemusser/linguashift/internal/app/store/organizations"
	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/auditlog"
	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/ratelimit"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Users      *userstore.Store
	Orgs       *organizationstore.Store
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	BcryptCost int
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		Users:      userstore.New(db),
		Orgs:       organizationstore.New(db),
		Limiter:    limiter,
		AuditLog:   audit,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// userView is the client-facing account shape.
type userView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
	Department     string `json:"department,omitempty"`
	Title          string `json:"title,omitempty"`
	AudiencePreset string `json:"audiencePreset"`
	TonePreset     string `json:"tonePreset"`
}

func viewOf(u models.User) userView {
	return userView{
		ID:             u.ID.Hex(),
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID.Hex(),
		Department:     u.Department,
		Title:          u.Title,
		AudiencePreset: u.AudiencePreset,
		TonePreset:     u.TonePreset,
	}
}

type authResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	User      userView  `json:"user"`
}

// signIn sets the session cookie and, when tokens are enabled, returns a
// bearer token for API clients.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	su := auth.SessionUser{
		ID:             u.ID.Hex(),
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID.Hex(),
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err), zap.String("user_id", su.ID))
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	resp := authResponse{User: viewOf(u)}
	if t := h.SessionMgr.Tokens(); t != nil {
		tok, exp, err := t.Issue(su)
		if err != nil {
			h.Log.Error("token issue failed", zap.Error(err), zap.String("user_id", su.ID))
			jsonapi.WriteError(w, h.Log, err)
			return
		}
		resp.Token, resp.ExpiresAt = tok, &exp
	}
	jsonapi.WriteJSON(w, status, resp)
}
