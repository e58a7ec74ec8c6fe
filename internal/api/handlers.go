package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/mayri/cookbook/internal/apperr"
	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/catalog"
	"github.com/mayri/cookbook/internal/media"
	"github.com/mayri/cookbook/internal/recipeservice"
)

const maxSaveBytes = 20 << 20 // form fields plus one image

// Handler holds API route handlers.
type Handler struct {
	svc  *recipeservice.Service
	gate *auth.Gate
	md   goldmark.Markdown
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service, gate *auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate, md: goldmark.New()}
}

// ListRecipes handles GET /recipes with optional filter and sort params:
// search, protein, min_cals, max_cals, meal_type (repeatable), sort.
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list recipes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, failureBody("internal error"))
		return
	}
	filtered := catalog.Apply(summaries, queryFromRequest(r.URL.Query()))
	writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: filtered, Total: len(filtered)})
}

func queryFromRequest(q url.Values) catalog.Query {
	return catalog.Query{
		Search:      q.Get("search"),
		Protein:     q.Get("protein"),
		MinCalories: optionalInt(q.Get("min_cals")),
		MaxCalories: optionalInt(q.Get("max_cals")),
		MealTypes:   q["meal_type"],
		Sort:        q.Get("sort"),
	}
}

// optionalInt parses an inclusive calorie bound; empty or unparseable
// means unbounded.
func optionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// GetRecipe handles GET /recipes/{slug}.
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rec, err := h.svc.Get(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, failureBody("not found"))
			return
		}
		slog.Error("get recipe failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, failureBody("internal error"))
		return
	}

	body := "## Ingredients\n" + rec.Ingredients + "\n\n## Instructions\n" + rec.Instructions + "\n"
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(body), &buf); err != nil {
		slog.Warn("markdown render failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, RecipeDetail{Recipe: *rec, ContentHTML: buf.String()})
}

// SaveRecipe handles POST /recipes (multipart/form-data). A present
// "slug" field makes this an edit of that record; otherwise the slug is
// derived from the title.
func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSaveBytes)
	if err := r.ParseMultipartForm(maxSaveBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, failureBody("invalid multipart form"))
		return
	}

	in := saveInputFromForm(r)
	slug, err := h.svc.Save(r.Context(), in)
	if err != nil {
		h.writeMutationError(w, "save recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Slug: slug})
}

// saveInputFromForm maps the submitted form onto a SaveInput, applying
// the documented defaults for unparseable numbers.
func saveInputFromForm(r *http.Request) recipeservice.SaveInput {
	protein := r.FormValue("protein_source_select")
	if protein == "other" {
		protein = r.FormValue("protein_source_custom")
	}

	in := recipeservice.SaveInput{
		ExistingSlug:  r.FormValue("slug"),
		Title:         r.FormValue("title"),
		ProteinSource: protein,
		Calories:      intOr(r.FormValue("calories"), 0),
		ProteinGrams:  intOr(r.FormValue("protein_grams"), 0),
		TimeMinutes:   intOr(r.FormValue("time_minutes"), 0),
		Servings:      intOr(r.FormValue("servings"), 1),
		Tags:          splitCSV(r.FormValue("tags")),
		MealTypes:     r.Form["meal_types"],
		Ingredients:   r.FormValue("ingredients"),
		Instructions:  r.FormValue("instructions"),
		Date:          r.FormValue("date"),
		ImageURL:      r.FormValue("existing_image_url"),
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if data, readErr := io.ReadAll(file); readErr == nil {
			in.Image = &media.Blob{Filename: header.Filename, Data: data}
		}
	}
	return in
}

// DeleteRecipe handles DELETE /recipes/{slug}.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.svc.Delete(r.Context(), slug); err != nil {
		h.writeMutationError(w, "delete recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// writeMutationError converts service errors into the uniform failure
// shape: refusals and validation keep their message, everything else is
// logged and reported generically.
func (h *Handler) writeMutationError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, failureBody("unauthorized: admin access required"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, failureBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, failureBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, failureBody(op+" failed"))
	}
}

// ProteinSources handles GET /protein-sources.
func (h *Handler) ProteinSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.svc.ProteinSources(r.Context())
	if err != nil {
		slog.Error("protein sources failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, failureBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ProteinSourcesResponse{Sources: sources})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failureBody("invalid JSON body"))
		return
	}
	if !h.gate.Authenticate(w, req.Password) {
		writeJSON(w, http.StatusUnauthorized, MutationResponse{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.gate.Logout(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{Admin: auth.IsAdmin(r.Context())})
}

func intOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
