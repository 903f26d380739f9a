// internal/app/features/signup/routes.go
package signup

import (
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, authMW *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RedirectIfSignedIn("/")).Get("/", h.ServeSignUp)
	r.Post("/", h.HandleSignUpPost)

	r.Group(func(pr chi.Router) {
		pr.Use(authMW.RequireSignedIn)
		pr.Get("/organization", h.ServeRegisterOrganization)
		pr.Post("/organization", h.HandleRegisterOrganization)
	})
	return r
}
