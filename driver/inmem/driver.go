// Package inmem provides an in-memory driver for activestorage.
//
// The in-memory driver is useful for unit testing without filesystem access,
// development, and fast ephemeral storage. Data is held in RAM and lost when
// the process exits.
package inmem

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("inmem", NewFromConfig)
}

// object represents a stored object in memory.
type object struct {
	content      []byte
	lastModified time.Time
}

// Driver implements activestorage.Driver backed by an in-process map.
// All mutations are serialized internally; the driver is safe for concurrent
// use.
type Driver struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory driver.
func New() *Driver {
	return &Driver{objects: make(map[string]object)}
}

// NewFromConfig creates an in-memory driver from a config map.
// The in-memory driver ignores all configuration options.
func NewFromConfig(_ context.Context, _ map[string]string) (activestorage.Driver, error) {
	return New(), nil
}

// Write stores content at path, overwriting any existing content.
func (d *Driver) Write(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	// Copy so later caller mutations of the slice don't leak in.
	stored := make([]byte, len(content))
	copy(stored, content)

	d.mu.Lock()
	d.objects[normalizePath(p)] = object{content: stored, lastModified: time.Now()}
	d.mu.Unlock()
	return nil
}

// Read returns a copy of the content stored at path.
func (d *Driver) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	d.mu.RLock()
	obj, ok := d.objects[normalizePath(p)]
	d.mu.RUnlock()
	if !ok {
		return nil, activestorage.ErrNotFound
	}

	content := make([]byte, len(obj.content))
	copy(content, obj.content)
	return content, nil
}

// Delete removes the content at path.
func (d *Driver) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	normalPath := normalizePath(p)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[normalPath]; !ok {
		return activestorage.ErrNotFound
	}
	delete(d.objects, normalPath)
	return nil
}

// Exists reports whether content exists at path.
func (d *Driver) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(p); err != nil {
		return false, err
	}

	d.mu.RLock()
	_, ok := d.objects[normalizePath(p)]
	d.mu.RUnlock()
	return ok, nil
}

// DeleteDirectory removes every object stored under path.
func (d *Driver) DeleteDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	prefix := normalizePath(p) + "/"

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := false
	for objPath := range d.objects {
		if strings.HasPrefix(objPath, prefix) {
			delete(d.objects, objPath)
			removed = true
		}
	}
	if !removed {
		return activestorage.ErrNotFound
	}
	return nil
}

// LastModified returns the time the content at path was last written.
func (d *Driver) LastModified(ctx context.Context, p string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(p); err != nil {
		return time.Time{}, err
	}

	d.mu.RLock()
	obj, ok := d.objects[normalizePath(p)]
	d.mu.RUnlock()
	if !ok {
		return time.Time{}, activestorage.ErrNotFound
	}
	return obj.lastModified, nil
}

// Count returns the number of stored objects.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.objects)
}

// Clear removes all stored objects.
func (d *Driver) Clear() {
	d.mu.Lock()
	d.objects = make(map[string]object)
	d.mu.Unlock()
}

// validatePath checks if a path is valid.
func validatePath(p string) error {
	if p == "" {
		return activestorage.ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return activestorage.ErrInvalidPath
	}
	return nil
}

// normalizePath normalizes a path for consistent storage.
func normalizePath(p string) string {
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
