package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/recipeservice"
)

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; mutations are refused by the service layer unless the session
// middleware resolved an admin cookie.
func NewRouter(svc *recipeservice.Service, gate *auth.Gate) chi.Router {
	h := NewHandler(svc, gate)

	r := chi.NewRouter()
	r.Use(SessionMiddleware(gate))

	r.Get("/recipes", h.ListRecipes)
	r.Post("/recipes", h.SaveRecipe)
	r.Get("/recipes/{slug}", h.GetRecipe)
	r.Delete("/recipes/{slug}", h.DeleteRecipe)

	r.Get("/protein-sources", h.ProteinSources)

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)

	return r
}
