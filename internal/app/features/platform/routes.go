package platform

import "github.com/go-chi/chi/v5"

// Routes mounts the public directory. All of it is readable without
// signing in.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeDirectory)
	r.Get("/list", h.ServeList)
	r.Get("/subsectors", h.ServeSubsectorOptions)
	r.Get("/organization/{id}", h.ServeOrganization)
	return r
}
