package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by a flat directory on the local file
// system. The directory is created on first write; a missing directory on
// read paths is treated as an empty store.
type FS struct {
	root string
}

// NewFS creates an FS provider rooted at the given directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &FS{root: abs}, nil
}

// safeName validates that name is a plain filename with no path
// separators or traversal, and returns the absolute path under root.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid name: %s", name)
	}
	return filepath.Join(f.root, cleaned), nil
}

// List returns every filename directly under the root. Fails open when
// the root does not exist.
func (f *FS) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Read returns the raw bytes of a record file.
func (f *FS) Read(_ context.Context, name string) ([]byte, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write creates or replaces a record file wholesale.
func (f *FS) Write(_ context.Context, name string, content []byte) error {
	abs, err := f.safeName(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	return nil
}

// Delete removes a record file.
func (f *FS) Delete(_ context.Context, name string) error {
	abs, err := f.safeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// FSBlobs implements BlobStore backed by a local uploads directory served
// under a public base path.
type FSBlobs struct {
	dir     string
	baseURL string
}

// NewFSBlobs creates a blob store writing to dir, with public URLs formed
// as baseURL + "/" + name.
func NewFSBlobs(dir, baseURL string) (*FSBlobs, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve uploads dir: %w", err)
	}
	return &FSBlobs{dir: abs, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the absolute uploads directory, for static file serving.
func (b *FSBlobs) Dir() string { return b.dir }

// Put writes the blob, creating the uploads directory on demand.
func (b *FSBlobs) Put(_ context.Context, name string, data []byte) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid blob name: %s", name)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir uploads: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, cleaned), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write blob %s: %w", name, err)
	}
	return b.baseURL + "/" + cleaned, nil
}

// Remove deletes the blob behind a public URL issued by this store.
func (b *FSBlobs) Remove(_ context.Context, publicURL string) error {
	name, ok := strings.CutPrefix(publicURL, b.baseURL+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("storage: blob URL not owned by this store: %s", publicURL)
	}
	if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
		return fmt.Errorf("storage: remove blob %s: %w", name, err)
	}
	return nil
}
