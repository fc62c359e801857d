// internal/app/features/organizations/glossary.go
package organizations

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/linguashift/internal/app/store/audit"
	"github.com/dalemusser/linguashift/internal/app/system/authz"
	"github.com/dalemusser/linguashift/internal/app/system/htmlsanitize"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type entryInput struct {
	Term          string `json:"term"`
	Explanation   string `json:"explanation"`
	PlainLanguage string `json:"plainLanguage"`
}

func (in entryInput) entry() models.GlossaryEntry {
	return models.GlossaryEntry{
		Term:          htmlsanitize.PlainText(in.Term),
		Explanation:   htmlsanitize.PlainText(in.Explanation),
		PlainLanguage: htmlsanitize.PlainText(in.PlainLanguage),
	}
}

// orgAndActor resolves the {id} param and the caller. Organizations other
// than the caller's own are reported as not found.
func orgAndActor(w http.ResponseWriter, r *http.Request) (orgID, actorID primitive.ObjectID, ok bool) {
	_, _, uid, signedIn := authz.UserCtx(r)
	if !signedIn {
		jsonapi.WriteStatus(w, http.StatusUnauthorized, jsonapi.CodeUnauthorized, "sign in required")
		return orgID, actorID, false
	}
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil || !authz.InOrg(r, oid) {
		jsonapi.WriteStatus(w, http.StatusNotFound, jsonapi.CodeNotFound, "organization not found")
		return orgID, actorID, false
	}
	return oid, uid, true
}

// termParam returns the decoded {term} path segment.
func termParam(r *http.Request) string {
	raw := chi.URLParam(r, "term")
	if t, err := url.PathUnescape(raw); err == nil {
		return t
	}
	return raw
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/organizations/{id}/glossary                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGlossary(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := orgAndActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Orgs.Glossary(ctx, orgID)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, g)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/organizations/{id}/glossary                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := orgAndActor(w, r)
	if !ok {
		return
	}
	var in entryInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	e := in.entry()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Orgs.AddGlossaryEntry(ctx, orgID, actorID, e)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.GlossaryChanged(ctx, r, audit.EventGlossaryEntryAdded, actorID, orgID, e.Term)
	jsonapi.WriteJSON(w, http.StatusCreated, g)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /api/organizations/{id}/glossary/{term}                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdateEntry replaces the explanation and plain-language text of an
// existing term. The term itself is the key and is not renamed.
func (h *Handler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := orgAndActor(w, r)
	if !ok {
		return
	}
	var in entryInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	term := termParam(r)
	e := in.entry()
	e.Term = term

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Orgs.UpdateGlossaryEntry(ctx, orgID, actorID, term, e)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.GlossaryChanged(ctx, r, audit.EventGlossaryEntryUpdated, actorID, orgID, term)
	jsonapi.WriteJSON(w, http.StatusOK, g)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /api/organizations/{id}/glossary/{term}                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := orgAndActor(w, r)
	if !ok {
		return
	}
	term := termParam(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Orgs.RemoveGlossaryEntry(ctx, orgID, actorID, term)
	if err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}
	h.AuditLog.GlossaryChanged(ctx, r, audit.EventGlossaryEntryRemoved, actorID, orgID, term)
	jsonapi.WriteJSON(w, http.StatusOK, g)
}
