// internal/app/features/organizations/handler.go
package organizations

import (
	"context"
	"net/http"
	"time"

	organizationstore "github.com/dalemusser/linguashift/internal/app/store/organizations"
	"github.com/dalemusser/linguashift/internal/app/system/auditlog"
	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Organizations and their
// glossaries.
type Handler struct {
	Orgs     *organizationstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:     organizationstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}

type orgView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	OwnerID     string                 `json:"ownerId"`
	MemberCount int                    `json:"memberCount"`
	Glossary    []models.GlossaryEntry `json:"glossary"`
	CreatedAt   time.Time              `json:"createdAt"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/organizations/me                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMine returns the organization the caller belongs to.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetForMember(ctx, uid)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	g := org.Glossary
	if g == nil {
		g = []models.GlossaryEntry{}
	}
	jsonapi.WriteJSON(w, http.StatusOK, orgView{
		ID:          org.ID.Hex(),
		Name:        org.Name,
		OwnerID:     org.OwnerID.Hex(),
		MemberCount: len(org.Members),
		Glossary:    g,
		CreatedAt:   org.CreatedAt,
	})
}
