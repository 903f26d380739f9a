// internal/app/features/settings/routes.go
package settings

import (
	"net/http"

	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, authMW *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(authMW.RequireSignedIn)
	r.Use(authMW.RequireOrganization)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/settings/profile", http.StatusSeeOther)
	})

	r.Get("/profile", h.ServeProfile)
	r.Post("/profile", h.HandleProfile)
	r.Post("/profile/logo", h.HandleLogo)

	r.Get("/product", h.ServeProduct)
	r.Post("/product", h.HandleProduct)

	r.Get("/images", h.ServeImages)
	r.Post("/images", h.HandleImages)
	r.Post("/images/{id}/remove", h.HandleRemoveImage)

	r.Get("/account", h.ServeAccount)
	r.Post("/account", h.HandleAccount)
	return r
}
