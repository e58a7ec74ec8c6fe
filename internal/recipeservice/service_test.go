package recipeservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mayri/cookbook/internal/apperr"
	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/media"
	"github.com/mayri/cookbook/internal/storage"
)

func testService(t *testing.T) (*Service, string, string) {
	t.Helper()
	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatal(err)
	}
	uploadsDir := t.TempDir()
	blobs, err := storage.NewFSBlobs(uploadsDir, "/uploads/recipes")
	if err != nil {
		t.Fatal(err)
	}
	return NewService(store, media.NewStore(blobs)), contentDir, uploadsDir
}

func adminCtx() context.Context {
	return auth.WithAdmin(context.Background())
}

func basicInput(title string) SaveInput {
	return SaveInput{
		Title:         title,
		ProteinSource: "Chicken",
		Calories:      450,
		ProteinGrams:  35,
		TimeMinutes:   25,
		Servings:      2,
		Tags:          []string{"weeknight", " quick ", ""},
		MealTypes:     []string{"Dinner"},
		Ingredients:   "- 1 chicken breast",
		Instructions:  "Grill it.",
		Date:          "2024-03-05",
	}
}

func TestSave_DerivesSlugFromTitle(t *testing.T) {
	svc, contentDir, _ := testService(t)

	slug, err := svc.Save(adminCtx(), basicInput("Grilled Chicken & Rice"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if slug != "grilled-chicken--rice" {
		t.Errorf("slug = %q", slug)
	}
	if _, err := os.Stat(filepath.Join(contentDir, slug+".mdx")); err != nil {
		t.Errorf("record file missing: %v", err)
	}
}

func TestSave_ExistingSlugImmutable(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := adminCtx()

	slug, err := svc.Save(ctx, basicInput("Original Title"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	in := basicInput("Renamed Entirely")
	in.ExistingSlug = slug
	got, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save edit: %v", err)
	}
	if got != slug {
		t.Errorf("slug changed on edit: %q -> %q", slug, got)
	}

	rec, err := svc.Get(ctx, slug)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Title != "Renamed Entirely" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := adminCtx()

	slug, err := svc.Save(ctx, basicInput("Grilled Chicken"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, err := svc.Get(ctx, slug)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Title != "Grilled Chicken" || rec.ProteinSource != "Chicken" {
		t.Errorf("strings = %q/%q", rec.Title, rec.ProteinSource)
	}
	if rec.Calories != 450 || rec.ProteinGrams != 35 || rec.TimeMinutes != 25 || rec.Servings != 2 {
		t.Errorf("numbers = %d/%d/%d/%d", rec.Calories, rec.ProteinGrams, rec.TimeMinutes, rec.Servings)
	}
	// Blank tag entries are dropped, the rest trimmed.
	if len(rec.Tags) != 2 || rec.Tags[0] != "weeknight" || rec.Tags[1] != "quick" {
		t.Errorf("tags = %v", rec.Tags)
	}
	if len(rec.MealTypes) != 1 || rec.MealTypes[0] != "Dinner" {
		t.Errorf("meal_types = %v", rec.MealTypes)
	}
	if rec.Date != "2024-03-05" {
		t.Errorf("date = %q", rec.Date)
	}
	if rec.Ingredients != "- 1 chicken breast" || rec.Instructions != "Grill it." {
		t.Errorf("body = %q / %q", rec.Ingredients, rec.Instructions)
	}
	if rec.ImageURL != nil {
		t.Errorf("image_url = %v, want nil", rec.ImageURL)
	}
}

func TestSave_SecondSubmissionWinsWholesale(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := adminCtx()

	slug, _ := svc.Save(ctx, basicInput("Stew"))

	in := basicInput("Stew")
	in.ExistingSlug = slug
	in.Calories = 100
	in.Tags = nil
	in.MealTypes = nil
	if _, err := svc.Save(ctx, in); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	rec, _ := svc.Get(ctx, slug)
	if rec.Calories != 100 {
		t.Errorf("calories = %d, want second submission's value", rec.Calories)
	}
	if len(rec.Tags) != 0 || len(rec.MealTypes) != 0 {
		t.Errorf("overwrite should not merge: tags=%v meal_types=%v", rec.Tags, rec.MealTypes)
	}
}

func TestSave_RequiresTitle(t *testing.T) {
	svc, contentDir, _ := testService(t)

	in := basicInput("")
	_, err := svc.Save(adminCtx(), in)
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	entries, _ := os.ReadDir(contentDir)
	if len(entries) != 0 {
		t.Error("no file should be written on validation failure")
	}
}

func TestSave_UnauthorizedNoSideEffect(t *testing.T) {
	svc, contentDir, uploadsDir := testService(t)

	in := basicInput("Sneaky")
	in.Image = &media.Blob{Filename: "x.jpg", Data: []byte("img")}
	_, err := svc.Save(context.Background(), in)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if entries, _ := os.ReadDir(contentDir); len(entries) != 0 {
		t.Error("record must not be written without authorization")
	}
	if entries, _ := os.ReadDir(uploadsDir); len(entries) != 0 {
		t.Error("image must not be uploaded without authorization")
	}
}

func TestSave_DateDefaultsToToday(t *testing.T) {
	svc, _, _ := testService(t)
	svc.now = func() time.Time { return time.Date(2024, 7, 9, 15, 0, 0, 0, time.UTC) }
	ctx := adminCtx()

	in := basicInput("Fresh")
	in.Date = ""
	slug, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, _ := svc.Get(ctx, slug)
	if rec.Date != "2024-07-09" {
		t.Errorf("date = %q, want 2024-07-09", rec.Date)
	}
}

func TestSave_DropsUnknownMealTypes(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := adminCtx()

	in := basicInput("Odd Meals")
	in.MealTypes = []string{"Dinner", "Second Breakfast", "Lunch"}
	slug, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, _ := svc.Get(ctx, slug)
	if len(rec.MealTypes) != 2 || rec.MealTypes[0] != "Dinner" || rec.MealTypes[1] != "Lunch" {
		t.Errorf("meal_types = %v", rec.MealTypes)
	}
}

func TestSave_UploadsImageAndKeepsURL(t *testing.T) {
	svc, _, uploadsDir := testService(t)
	ctx := adminCtx()

	in := basicInput("Pictured")
	in.Image = &media.Blob{Filename: "dish.png", Data: []byte("img-bytes")}
	slug, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, _ := svc.Get(ctx, slug)
	if rec.ImageURL == nil {
		t.Fatal("image_url missing after upload")
	}
	if entries, _ := os.ReadDir(uploadsDir); len(entries) != 1 {
		t.Errorf("uploads dir has %d entries, want 1", len(entries))
	}

	// Editing without a new image keeps the stored URL.
	edit := basicInput("Pictured")
	edit.ExistingSlug = slug
	edit.ImageURL = *rec.ImageURL
	if _, err := svc.Save(ctx, edit); err != nil {
		t.Fatalf("edit Save: %v", err)
	}
	rec2, _ := svc.Get(ctx, slug)
	if rec2.ImageURL == nil || *rec2.ImageURL != *rec.ImageURL {
		t.Errorf("image_url = %v, want preserved %q", rec2.ImageURL, *rec.ImageURL)
	}
}

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (failingBlobs) Remove(context.Context, string) error {
	return errors.New("bucket unavailable")
}

func TestSave_UploadFailureIsNonFatal(t *testing.T) {
	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, media.NewStore(failingBlobs{}))
	ctx := adminCtx()

	in := basicInput("Resilient")
	in.Image = &media.Blob{Filename: "x.jpg", Data: []byte("img")}
	slug, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save should succeed without the image: %v", err)
	}
	rec, _ := svc.Get(ctx, slug)
	if rec.ImageURL != nil {
		t.Errorf("image_url = %v, want nil after failed upload", rec.ImageURL)
	}
}

func TestGet_Missing(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_EmptyStore(t *testing.T) {
	svc, _, _ := testService(t)
	summaries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("summaries = %v", summaries)
	}
}

func TestList_SkipsMalformedRecords(t *testing.T) {
	svc, contentDir, _ := testService(t)
	ctx := adminCtx()

	if _, err := svc.Save(ctx, basicInput("Good Recipe")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "broken.mdx"), []byte("no frontmatter here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	summaries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Title != "Good Recipe" {
		t.Errorf("summaries = %v", summaries)
	}
}

func TestList_BackfillsDefaults(t *testing.T) {
	svc, contentDir, _ := testService(t)
	raw := "---\ntitle: \"Sparse\"\n---\n\n## Ingredients\nx\n\n## Instructions\ny\n"
	if err := os.WriteFile(filepath.Join(contentDir, "sparse.mdx"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	summaries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %v", summaries)
	}
	s := summaries[0]
	if s.Slug != "sparse" {
		t.Errorf("slug = %q, want filename stem", s.Slug)
	}
	if s.MealTypes == nil || len(s.MealTypes) != 0 {
		t.Errorf("meal_types = %v, want []", s.MealTypes)
	}
	if s.ImageURL != nil {
		t.Errorf("image_url = %v, want nil", s.ImageURL)
	}
}

func TestProteinSources(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := adminCtx()

	for _, c := range []struct{ title, protein string }{
		{"One", "Tofu"},
		{"Two", "Chicken"},
		{"Three", "Tofu"},
		{"Four", ""},
	} {
		in := basicInput(c.title)
		in.ProteinSource = c.protein
		if _, err := svc.Save(ctx, in); err != nil {
			t.Fatalf("Save %s: %v", c.title, err)
		}
	}

	sources, err := svc.ProteinSources(ctx)
	if err != nil {
		t.Fatalf("ProteinSources: %v", err)
	}
	if len(sources) != 2 || sources[0] != "Chicken" || sources[1] != "Tofu" {
		t.Errorf("sources = %v, want [Chicken Tofu]", sources)
	}
}

func TestDelete(t *testing.T) {
	svc, contentDir, _ := testService(t)
	ctx := adminCtx()

	slug, _ := svc.Save(ctx, basicInput("Doomed"))
	if err := svc.Delete(ctx, slug); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(contentDir, slug+".mdx")); !os.IsNotExist(err) {
		t.Error("record file should be gone")
	}
}

func TestDelete_MissingIsFailure(t *testing.T) {
	svc, _, _ := testService(t)
	err := svc.Delete(adminCtx(), "never-existed")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete_Unauthorized(t *testing.T) {
	svc, contentDir, _ := testService(t)

	slug, _ := svc.Save(adminCtx(), basicInput("Protected"))
	err := svc.Delete(context.Background(), slug)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, statErr := os.Stat(filepath.Join(contentDir, slug+".mdx")); statErr != nil {
		t.Error("record must survive an unauthorized delete")
	}
}

func TestDelete_CascadesImage(t *testing.T) {
	svc, _, uploadsDir := testService(t)
	ctx := adminCtx()

	in := basicInput("Pictured")
	in.Image = &media.Blob{Filename: "dish.jpg", Data: []byte("img")}
	slug, err := svc.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if entries, _ := os.ReadDir(uploadsDir); len(entries) != 1 {
		t.Fatalf("uploads dir has %d entries before delete", len(entries))
	}

	if err := svc.Delete(ctx, slug); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if entries, _ := os.ReadDir(uploadsDir); len(entries) != 0 {
		t.Error("image blob should be cascade-deleted with its record")
	}
}
