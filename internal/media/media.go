// Package media uploads recipe images to a blob store. Upload failure is
// deliberately non-fatal: the caller proceeds without an image URL.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mayri/cookbook/internal/storage"
)

// Blob is an image submitted with a save, carrying the original filename
// so the extension can be preserved.
type Blob struct {
	Filename string
	Data     []byte
}

// Store uploads images for recipes.
type Store struct {
	blobs storage.BlobStore
	now   func() time.Time
}

// NewStore creates a media store over the given blob backend.
func NewStore(blobs storage.BlobStore) *Store {
	return &Store{blobs: blobs, now: time.Now}
}

// Upload stores an image for the recipe identified by slug and returns
// its public URL. A nil or empty blob returns "" without error. A write
// failure is logged and also returns "": the save continues without
// updating the image URL.
func (s *Store) Upload(ctx context.Context, blob *Blob, slug string) string {
	if blob == nil || len(blob.Data) == 0 {
		return ""
	}
	name := fmt.Sprintf("%s-%d.%s", slug, s.now().UnixMilli(), extension(blob.Filename))
	url, err := s.blobs.Put(ctx, name, blob.Data)
	if err != nil {
		slog.Error("image upload failed",
			slog.String("slug", slug),
			slog.String("filename", blob.Filename),
			slog.String("error", err.Error()))
		return ""
	}
	slog.Info("image uploaded",
		slog.String("slug", slug),
		slog.Int("bytes", len(blob.Data)),
		slog.String("url", url))
	return url
}

// Remove deletes a previously uploaded image by its public URL. Used by
// the record cascade delete; failures are the caller's to log.
func (s *Store) Remove(ctx context.Context, publicURL string) error {
	return s.blobs.Remove(ctx, publicURL)
}

// extension takes the suffix of the original filename, defaulting to jpg.
func extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		return filename[i+1:]
	}
	return "jpg"
}
