// Package storage defines the content persistence abstraction and its
// local-filesystem and GitHub-backed implementations.
package storage

import "context"

// Provider is the interface for record file operations. Record files live
// flat under a single content root and are addressed by bare filename.
type Provider interface {
	// List returns the names of every record file under the content root.
	// A missing root is not an error: the result is simply empty.
	List(ctx context.Context) ([]string, error)
	// Read returns the raw bytes of the named record file. A missing file
	// yields an error wrapping os.ErrNotExist.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write creates or wholesale-replaces the named record file.
	Write(ctx context.Context, name string, content []byte) error
	// Delete removes the named record file. A missing file yields an error
	// wrapping os.ErrNotExist.
	Delete(ctx context.Context, name string) error
}

// BlobStore is the interface for media blob operations.
type BlobStore interface {
	// Put stores a blob under the given name and returns its public URL.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Remove deletes the blob previously returned under publicURL. URLs
	// that do not belong to this store yield an error.
	Remove(ctx context.Context, publicURL string) error
}
