// internal/app/features/clarity/handler.go
package clarity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	organizationstore "github.com/dalemusser/linguashift/internal/app/store/organizations"
	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxTextRunes bounds the drafts accepted for annotation and rewriting.
const MaxTextRunes = 10000

type Annotator interface {
	Annotate(ctx context.Context, text string, glossary []models.GlossaryEntry) (jargon.Result, error)
}

type Rewriter interface {
	Rewrite(ctx context.Context, text, audience, tone string, glossary []models.GlossaryEntry) (string, error)
}

// Handler exposes the clarity pipeline to clients. The caller's
// organization glossary is loaded per request.
type Handler struct {
	Orgs      *organizationstore.Store
	Users     *userstore.Store
	Annotator Annotator
	Rewriter  Rewriter // nil when no generative service is configured
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, ann Annotator, rw Rewriter, logger *zap.Logger) *Handler {
	return &Handler{
		Orgs:      organizationstore.New(db),
		Users:     userstore.New(db),
		Annotator: ann,
		Rewriter:  rw,
		Log:       logger,
	}
}

type detectInput struct {
	Text string `json:"text"`
}

type rewriteInput struct {
	Text     string `json:"text"`
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
}

type rewriteResponse struct {
	RewrittenText string `json:"rewrittenText"`
	Audience      string `json:"audience"`
	Tone          string `json:"tone"`
}

func checkLength(text string) error {
	if utf8.RuneCountInString(text) > MaxTextRunes {
		return fmt.Errorf("%w: text exceeds %d characters", errs.ErrValidation, MaxTextRunes)
	}
	return nil
}

// glossaryFor loads the caller's organization glossary. Callers without an
// organization, or whose organization is gone, get an empty glossary.
func (h *Handler) glossaryFor(ctx context.Context, r *http.Request) ([]models.GlossaryEntry, error) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		return []models.GlossaryEntry{}, nil
	}
	g, err := h.Orgs.Glossary(ctx, orgID)
	if errors.Is(err, errs.ErrNotFound) {
		return []models.GlossaryEntry{}, nil
	}
	return g, err
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/ml/detect-jargon                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDetect annotates a draft. When the detector is unavailable the
// response is 503 and clients carry on without annotation.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var in detectInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	if err := checkLength(in.Text); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.External())
	defer cancel()

	glossary, err := h.glossaryFor(ctx, r)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	res, err := h.Annotator.Annotate(ctx, in.Text, glossary)
	if err != nil {
		h.Log.Warn("jargon detection unavailable", zap.Error(err))
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/ml/rewrite                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRewrite rewrites a draft for an audience and tone. Blank audience or
// tone fall back to the caller's saved presets.
func (h *Handler) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	if h.Rewriter == nil {
		jsonapi.WriteStatus(w, http.StatusServiceUnavailable, jsonapi.CodeServiceUnavailable, "rewriting is not configured")
		return
	}

	var in rewriteInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	if strings.TrimSpace(in.Text) == "" {
		jsonapi.WriteStatus(w, http.StatusBadRequest, jsonapi.CodeInvalidRequest, "text is required")
		return
	}
	if err := checkLength(in.Text); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.External())
	defer cancel()

	audience, tone := strings.TrimSpace(in.Audience), strings.TrimSpace(in.Tone)
	if audience == "" || tone == "" {
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			jsonapi.WriteError(w, h.Log, err)
			return
		}
		audience = normalize.Preset(audience, normalize.Preset(u.AudiencePreset, models.DefaultAudience))
		tone = normalize.Preset(tone, normalize.Preset(u.TonePreset, models.DefaultTone))
	}

	glossary, err := h.glossaryFor(ctx, r)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	out, err := h.Rewriter.Rewrite(ctx, in.Text, audience, tone, glossary)
	if err != nil {
		h.Log.Warn("rewrite failed", zap.Error(err), zap.String("user_id", uid.Hex()))
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, rewriteResponse{RewrittenText: out, Audience: audience, Tone: tone})
}
