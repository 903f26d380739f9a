// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/fwsm/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /sign-in. Signed-in users are sent home on GET.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RedirectIfSignedIn("/")).Get("/", h.ServeSignIn)
	r.Post("/", h.HandleSignInPost)
	return r
}
