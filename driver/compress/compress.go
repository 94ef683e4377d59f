// Package compress provides a driver decorator that transparently
// compresses content before it reaches the underlying driver and
// decompresses it on the way back.
//
// The decorator wraps any activestorage.Driver:
//
//	inner := inmem.New()
//	driver := compress.New(inner, compress.Zstd())
//	store := activestorage.NewStore(driver)
//
// Everything except Write and Read delegates to the inner driver
// unchanged; paths, existence checks and deletes are unaffected by
// compression.
package compress

import (
	"context"
	"fmt"
	"time"

	activestorage "github.com/kaplanelad/active-storage"
)

// Codec compresses and decompresses byte content.
type Codec interface {
	// Name identifies the codec, e.g. "zstd" or "gzip".
	Name() string

	// Encode returns the compressed form of content.
	Encode(content []byte) ([]byte, error)

	// Decode returns the original content from its compressed form.
	Decode(compressed []byte) ([]byte, error)
}

// Driver wraps an inner driver with transparent compression.
type Driver struct {
	inner activestorage.Driver
	codec Codec
}

// New creates a compressing decorator around inner using codec.
func New(inner activestorage.Driver, codec Codec) *Driver {
	return &Driver{
		inner: inner,
		codec: codec,
	}
}

// Inner returns the wrapped driver.
func (d *Driver) Inner() activestorage.Driver {
	return d.inner
}

// Write compresses content and stores it at path.
func (d *Driver) Write(ctx context.Context, path string, content []byte) error {
	compressed, err := d.codec.Encode(content)
	if err != nil {
		return fmt.Errorf("compress: %s encoding %s: %w", d.codec.Name(), path, err)
	}
	return d.inner.Write(ctx, path, compressed)
}

// Read fetches the content at path and decompresses it.
func (d *Driver) Read(ctx context.Context, path string) ([]byte, error) {
	compressed, err := d.inner.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	content, err := d.codec.Decode(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s decoding %s: %v", activestorage.ErrDecode, d.codec.Name(), path, err)
	}
	return content, nil
}

// Delete removes the content at path.
func (d *Driver) Delete(ctx context.Context, path string) error {
	return d.inner.Delete(ctx, path)
}

// Exists reports whether content exists at path.
func (d *Driver) Exists(ctx context.Context, path string) (bool, error) {
	return d.inner.Exists(ctx, path)
}

// DeleteDirectory removes the directory at path and everything under it.
func (d *Driver) DeleteDirectory(ctx context.Context, path string) error {
	return d.inner.DeleteDirectory(ctx, path)
}

// LastModified returns the modification time of the content at path.
func (d *Driver) LastModified(ctx context.Context, path string) (time.Time, error) {
	return d.inner.LastModified(ctx, path)
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
