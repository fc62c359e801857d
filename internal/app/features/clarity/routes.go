// internal/app/features/clarity/routes.go
package clarity

import (
	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/detect-jargon", h.HandleDetect)
		pr.Post("/rewrite", h.HandleRewrite)
	})
	return r
}
