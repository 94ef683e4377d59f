// Package gcs provides a Google Cloud Storage driver for activestorage.
//
// Basic usage with Application Default Credentials:
//
//	driver, err := gcs.New(ctx, gcs.Config{
//	    Bucket: "my-bucket",
//	})
//
// With a service account key file:
//
//	driver, err := gcs.New(ctx, gcs.Config{
//	    Bucket:          "my-bucket",
//	    CredentialsFile: "/path/to/key.json",
//	})
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("gcs", NewFromConfig)
}

// Driver implements activestorage.Driver for Google Cloud Storage.
type Driver struct {
	client *storage.Client
	bucket string
}

// New creates a Google Cloud Storage driver. Credentials resolve through
// Application Default Credentials unless a key file is configured or
// authentication is disabled.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: gcs client: %v", activestorage.ErrConfiguration, err)
	}

	return &Driver{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// NewWithClient creates a driver around an existing client, useful for tests
// and pre-configured clients.
func NewWithClient(client *storage.Client, bucket string) *Driver {
	return &Driver{
		client: client,
		bucket: bucket,
	}
}

// NewFromConfig creates a GCS driver from a config map.
// This is used by the activestorage registry.
func NewFromConfig(ctx context.Context, configMap map[string]string) (activestorage.Driver, error) {
	return New(ctx, ConfigFromMap(configMap))
}

// Write uploads content as an object at path.
func (d *Driver) Write(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	w := d.object(p).NewWriter(ctx)
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return translateError("writing", p, err)
	}
	if err := w.Close(); err != nil {
		return translateError("writing", p, err)
	}
	return nil
}

// Read downloads the content of the object at path.
func (d *Driver) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	r, err := d.object(p).NewReader(ctx)
	if err != nil {
		return nil, translateError("reading", p, err)
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", activestorage.ErrConnection, p, err)
	}
	return content, nil
}

// Delete removes the object at path.
func (d *Driver) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	if err := d.object(p).Delete(ctx); err != nil {
		return translateError("deleting", p, err)
	}
	return nil
}

// Exists reports whether an object exists at path.
func (d *Driver) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(p); err != nil {
		return false, err
	}

	_, err := d.object(p).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, translateError("checking existence of", p, err)
}

// DeleteDirectory removes every object stored under path.
func (d *Driver) DeleteDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	it := d.client.Bucket(d.bucket).Objects(ctx, &storage.Query{
		Prefix: strings.TrimSuffix(p, "/") + "/",
	})

	deleted := false
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return translateError("listing", p, err)
		}
		if err := d.client.Bucket(d.bucket).Object(attrs.Name).Delete(ctx); err != nil {
			return translateError("deleting", attrs.Name, err)
		}
		deleted = true
	}
	if !deleted {
		return activestorage.ErrNotFound
	}
	return nil
}

// LastModified returns the object's last update time.
func (d *Driver) LastModified(ctx context.Context, p string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(p); err != nil {
		return time.Time{}, err
	}

	attrs, err := d.object(p).Attrs(ctx)
	if err != nil {
		return time.Time{}, translateError("stat", p, err)
	}
	if attrs.Updated.IsZero() {
		return attrs.Created, nil
	}
	return attrs.Updated, nil
}

// Close releases resources held by the underlying client.
func (d *Driver) Close() error {
	return d.client.Close()
}

func (d *Driver) object(p string) *storage.ObjectHandle {
	return d.client.Bucket(d.bucket).Object(p)
}

// validatePath checks if an object key is valid.
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

// translateError maps SDK errors to the sentinel taxonomy.
func translateError(op, p string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return activestorage.ErrNotFound
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 404:
			return activestorage.ErrNotFound
		case 401, 403:
			return fmt.Errorf("%w: %s %s: %v", activestorage.ErrAuthenticationFailed, op, p, err)
		}
		return fmt.Errorf("gcs: %s %s: %w", op, p, err)
	}

	return fmt.Errorf("%w: %s %s: %v", activestorage.ErrConnection, op, p, err)
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
