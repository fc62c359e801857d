// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the organization routes under the base path
// (typically "/api/organizations" from bootstrap). Any member may edit
// the organization glossary.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/me", h.ServeMine)

		pr.Get("/{id}/glossary", h.ServeGlossary)
		pr.Post("/{id}/glossary", h.HandleAddEntry)
		pr.Put("/{id}/glossary/{term}", h.HandleUpdateEntry)
		pr.Delete("/{id}/glossary/{term}", h.HandleRemoveEntry)
	})

	return r
}
