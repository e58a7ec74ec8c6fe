// Package testutil provides shared test helpers for setting up content
// stores and services.
package testutil

import (
	"testing"

	"github.com/mayri/cookbook/internal/media"
	"github.com/mayri/cookbook/internal/recipeservice"
	"github.com/mayri/cookbook/internal/storage"
)

// TestContent creates a temporary content directory with an FS provider.
func TestContent(t *testing.T) (*storage.FS, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store, dir
}

// TestService wires a recipe service over temporary content and uploads
// directories, returning both directories for direct inspection.
func TestService(t *testing.T) (*recipeservice.Service, string, string) {
	t.Helper()
	store, contentDir := TestContent(t)
	uploadsDir := t.TempDir()
	blobs, err := storage.NewFSBlobs(uploadsDir, "/uploads/recipes")
	if err != nil {
		t.Fatal(err)
	}
	svc := recipeservice.NewService(store, media.NewStore(blobs))
	return svc, contentDir, uploadsDir
}
