package api

import "github.com/mayri/cookbook/internal/models"

// RecipeListResponse wraps a filtered catalog listing.
type RecipeListResponse struct {
	Recipes []models.RecipeSummary `json:"recipes"`
	Total   int                    `json:"total"`
}

// RecipeDetail is the full record plus the body rendered to HTML.
type RecipeDetail struct {
	models.Recipe
	ContentHTML string `json:"content_html"`
}

// MutationResponse is the uniform result shape for save and delete.
type MutationResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoginRequest is the request body for authenticating.
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionResponse reports whether the current session is admin.
type SessionResponse struct {
	Admin bool `json:"admin"`
}

// ProteinSourcesResponse wraps the distinct protein source values.
type ProteinSourcesResponse struct {
	Sources []string `json:"sources"`
}
