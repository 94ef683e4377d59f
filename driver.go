// Package activestorage provides a uniform file-storage abstraction over
// heterogeneous backends (local disk, in-memory, and cloud object stores),
// plus a mirroring layer that replicates writes from a primary store to
// one or more named secondary stores.
//
// Basic usage:
//
//	store, _ := activestorage.Open(ctx, "disk", map[string]string{"location": "/data"})
//	_ = store.Write(ctx, "logs/app.txt", []byte("hello"))
//
// Mirroring:
//
//	ms := activestorage.NewMultiStore(primary)
//	ms.AddStores(map[string]*activestorage.Store{"backup": secondary})
//	outcome, err := ms.MirrorStoresFromPrimary().Write(ctx, "logs/app.txt", []byte("hello"))
package activestorage

import (
	"context"
	"time"
)

// Driver is the capability contract every storage backend implements.
// Implementations are thin adapters over their medium (filesystem subtree,
// in-memory table, or remote bucket) and must be safe for concurrent use.
//
// Paths are slash-separated identifiers relative to the driver's root.
// Content is an opaque byte sequence; any size limits are the backend's own
// (e.g. cloud object size caps).
//
// All methods accept a context.Context for cancellation and timeouts.
type Driver interface {
	// Write persists content at path, overwriting any existing content.
	// The write is atomic from the point of view of a concurrent reader
	// of the same driver.
	Write(ctx context.Context, path string, content []byte) error

	// Read returns the content stored at path.
	// Returns ErrNotFound if no content exists at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the content at path.
	// Returns ErrNotFound if path does not exist; deleting twice surfaces
	// ErrNotFound the second time.
	Delete(ctx context.Context, path string) error

	// Exists reports whether content exists at path.
	// A missing path is (false, nil), never ErrNotFound.
	Exists(ctx context.Context, path string) (bool, error)

	// DeleteDirectory removes every object stored under path.
	// Returns ErrNotFound if nothing exists under path.
	DeleteDirectory(ctx context.Context, path string) error

	// LastModified returns the last modification time of the content at path.
	// Returns ErrNotFound if path does not exist.
	LastModified(ctx context.Context, path string) (time.Time, error)
}
