package themes

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeThemes)
	r.Get("/{id}", h.ServeSector)
	return r
}
