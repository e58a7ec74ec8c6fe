// Package recipeservice implements the record store operations over a
// storage provider: list, get, save, delete, and the derived protein
// source set. Mutations require an admin-authorized context.
package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mayri/cookbook/internal/apperr"
	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/media"
	"github.com/mayri/cookbook/internal/models"
	"github.com/mayri/cookbook/internal/parser"
	"github.com/mayri/cookbook/internal/storage"
)

// recordExt is the extension of every record file under the content root.
const recordExt = ".mdx"

// Service coordinates record and media persistence.
type Service struct {
	store storage.Provider
	media *media.Store
	now   func() time.Time
}

// NewService creates a recipe service.
func NewService(store storage.Provider, mediaStore *media.Store) *Service {
	return &Service{store: store, media: mediaStore, now: time.Now}
}

// SaveInput carries one save submission. Numeric fields are already
// parsed and defaulted by the transport boundary.
type SaveInput struct {
	ExistingSlug  string
	Title         string
	ProteinSource string
	Calories      int
	ProteinGrams  int
	TimeMinutes   int
	Servings      int
	Tags          []string
	MealTypes     []string
	Ingredients   string
	Instructions  string
	Date          string
	ImageURL      string // previously stored URL, kept unless a new image uploads
	Image         *media.Blob
}

// Validate checks the fields a record must have before it may persist.
func (in SaveInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
	)
}

// List enumerates all records, decoding headers only. Malformed records
// are logged and skipped rather than failing the listing. A missing
// content root yields an empty result. No order is guaranteed.
func (s *Service) List(ctx context.Context) ([]models.RecipeSummary, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.RecipeSummary{}
	for _, name := range names {
		if !strings.HasSuffix(name, recordExt) {
			continue
		}
		data, err := s.store.Read(ctx, name)
		if err != nil {
			slog.Warn("skipping unreadable record", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		summary, err := parser.DecodeSummary(data, strings.TrimSuffix(name, recordExt))
		if err != nil {
			slog.Warn("skipping malformed record", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		out = append(out, *summary)
	}
	return out, nil
}

// Get reads one record by slug, header and body. A missing file is
// apperr.ErrNotFound; a malformed file surfaces its decode error.
func (s *Service) Get(ctx context.Context, slug string) (*models.Recipe, error) {
	data, err := s.store.Read(ctx, slug+recordExt)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return parser.Decode(data, slug)
}

// ProteinSources returns the distinct non-empty protein sources across
// all records, sorted.
func (s *Service) ProteinSources(ctx context.Context) ([]string, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range summaries {
		if r.ProteinSource == "" {
			continue
		}
		if _, dup := seen[r.ProteinSource]; dup {
			continue
		}
		seen[r.ProteinSource] = struct{}{}
		out = append(out, r.ProteinSource)
	}
	sort.Strings(out)
	return out, nil
}

// Save persists one submission as a full record rewrite. The slug is the
// existing slug when supplied (immutable across edits) and is otherwise
// derived from the title. The image upload, if any, happens first and is
// non-fatal; the record write is the operation's outcome.
func (s *Service) Save(ctx context.Context, in SaveInput) (string, error) {
	if !auth.IsAdmin(ctx) {
		return "", apperr.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalid, err)
	}

	slug := in.ExistingSlug
	if slug == "" {
		slug = models.Slugify(in.Title)
	}
	if slug == "" {
		return "", fmt.Errorf("%w: title yields an empty slug", apperr.ErrInvalid)
	}

	date := in.Date
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	var imageURL *string
	if in.ImageURL != "" {
		imageURL = &in.ImageURL
	}
	if uploaded := s.media.Upload(ctx, in.Image, slug); uploaded != "" {
		imageURL = &uploaded
	}

	rec := &models.Recipe{
		RecipeSummary: models.RecipeSummary{
			Slug:          slug,
			Title:         in.Title,
			ProteinSource: in.ProteinSource,
			Calories:      nonNegative(in.Calories),
			ProteinGrams:  nonNegative(in.ProteinGrams),
			TimeMinutes:   nonNegative(in.TimeMinutes),
			Servings:      positiveOrOne(in.Servings),
			Tags:          cleanTags(in.Tags),
			MealTypes:     knownMealTypes(in.MealTypes),
			ImageURL:      imageURL,
			Date:          date,
		},
		Ingredients:  strings.TrimSpace(in.Ingredients),
		Instructions: strings.TrimSpace(in.Instructions),
	}

	if err := s.store.Write(ctx, slug+recordExt, parser.Encode(rec)); err != nil {
		return "", err
	}
	return slug, nil
}

// Delete removes a record. After the record file is gone, the owned image
// blob (if any) is removed best-effort; a failed cascade is logged, not
// surfaced.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if !auth.IsAdmin(ctx) {
		return apperr.ErrUnauthorized
	}
	data, err := s.store.Read(ctx, slug+recordExt)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, slug+recordExt); err != nil {
		return err
	}
	if summary, decErr := parser.DecodeSummary(data, slug); decErr == nil && summary.ImageURL != nil {
		if rmErr := s.media.Remove(ctx, *summary.ImageURL); rmErr != nil {
			slog.Warn("image cascade delete failed",
				slog.String("slug", slug),
				slog.String("url", *summary.ImageURL),
				slog.String("error", rmErr.Error()))
		}
	}
	return nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func positiveOrOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func cleanTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// knownMealTypes drops values outside the fixed meal type set.
func knownMealTypes(vals []string) []string {
	out := []string{}
	for _, v := range vals {
		if models.ValidMealType(v) {
			out = append(out, v)
		}
	}
	return out
}
