package activestorage

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Store is the public façade over a single storage driver. It is the value
// MultiStore composes over.
//
// A Store holds only a driver handle; copying a Store duplicates the handle,
// never the underlying resource or connection. State lives entirely in the
// backend medium.
type Store struct {
	driver Driver
}

// NewStore creates a Store backed by the provided driver.
func NewStore(driver Driver) *Store {
	return &Store{driver: driver}
}

// Driver returns the underlying driver.
func (s *Store) Driver() Driver {
	return s.driver
}

// Write persists content at path, overwriting any existing content.
func (s *Store) Write(ctx context.Context, path string, content []byte) error {
	return s.driver.Write(ctx, path, content)
}

// Read returns the content stored at path.
// Returns ErrNotFound if no content exists at path.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	return s.driver.Read(ctx, path)
}

// ReadString reads the content at path and decodes it as UTF-8.
// Returns ErrDecode if the content is not valid UTF-8.
func (s *Store) ReadString(ctx context.Context, path string) (string, error) {
	content, err := s.driver.Read(ctx, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: content at %s is not valid UTF-8", ErrDecode, path)
	}
	return string(content), nil
}

// Delete removes the content at path.
// Returns ErrNotFound if path does not exist.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.driver.Delete(ctx, path)
}

// Exists reports whether content exists at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	return s.driver.Exists(ctx, path)
}

// DeleteDirectory removes every object stored under path.
// Returns ErrNotFound if nothing exists under path.
func (s *Store) DeleteDirectory(ctx context.Context, path string) error {
	return s.driver.DeleteDirectory(ctx, path)
}

// LastModified returns the last modification time of the content at path.
// Returns ErrNotFound if path does not exist.
func (s *Store) LastModified(ctx context.Context, path string) (time.Time, error) {
	return s.driver.LastModified(ctx, path)
}
