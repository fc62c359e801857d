// internal/app/features/channels/routes.go
package channels

import (
	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreateGroup)
		pr.Post("/direct", h.HandleDirect)
		pr.Get("/{id}", h.ServeDetail)
		pr.Post("/{id}/members", h.HandleAddMembers)
		pr.Get("/{id}/messages", h.ServeMessages)
		pr.Post("/{id}/messages", h.HandleSend)
		pr.Patch("/{id}/messages/{mid}", h.HandleEdit)
		pr.Delete("/{id}/messages/{mid}", h.HandleDelete)
	})
	return r
}
