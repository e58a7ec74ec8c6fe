package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// UploadsHandler serves locally stored recipe images. Only mounted for
// the filesystem backend; the GitHub backend returns absolute public
// URLs instead.
type UploadsHandler struct {
	dir string
}

// NewUploadsHandler creates a handler serving files from dir.
func NewUploadsHandler(dir string) *UploadsHandler {
	return &UploadsHandler{dir: dir}
}

// safeName validates that the filename is a plain name (no path
// separators, no traversal) and returns the absolute path under dir.
func (h *UploadsHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return filepath.Join(h.dir, cleaned), nil
}

// ServeFile handles GET /uploads/recipes/{filename}.
func (h *UploadsHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
