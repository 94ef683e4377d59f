// Package azure provides an Azure Blob Storage driver for activestorage.
//
// Basic usage:
//
//	driver, err := azure.New(ctx, azure.Config{
//	    Account:   "myaccount",
//	    Container: "my-container",
//	    AccessKey: accessKey,
//	})
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("azure", NewFromConfig)
}

// Driver implements activestorage.Driver for Azure Blob Storage.
type Driver struct {
	client    *azblob.Client
	container string
}

// New creates an Azure Blob Storage driver authenticated with the account's
// shared access key.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("%w: azure credentials: %v", activestorage.ErrConfiguration, err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(cfg.serviceURL(), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: azure client: %v", activestorage.ErrConfiguration, err)
	}

	return &Driver{
		client:    client,
		container: cfg.Container,
	}, nil
}

// NewWithClient creates a driver around an existing client, useful for tests
// and pre-configured clients.
func NewWithClient(client *azblob.Client, container string) *Driver {
	return &Driver{
		client:    client,
		container: container,
	}
}

// NewFromConfig creates an Azure driver from a config map.
// This is used by the activestorage registry.
func NewFromConfig(ctx context.Context, configMap map[string]string) (activestorage.Driver, error) {
	return New(ctx, ConfigFromMap(configMap))
}

// Write uploads content as a block blob at path.
func (d *Driver) Write(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	_, err := d.client.UploadBuffer(ctx, d.container, p, content, nil)
	if err != nil {
		return translateError(err, p)
	}
	return nil
}

// Read downloads the content of the blob at path.
func (d *Driver) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	resp, err := d.client.DownloadStream(ctx, d.container, p, nil)
	if err != nil {
		return nil, translateError(err, p)
	}
	defer func() { _ = resp.Body.Close() }()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading blob body for %s: %v", activestorage.ErrConnection, p, err)
	}
	return content, nil
}

// Delete removes the blob at path.
func (d *Driver) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	_, err := d.client.DeleteBlob(ctx, d.container, p, nil)
	if err != nil {
		return translateError(err, p)
	}
	return nil
}

// Exists reports whether a blob exists at path.
func (d *Driver) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(p); err != nil {
		return false, err
	}

	_, err := d.blobProperties(ctx, p)
	if err != nil {
		if activestorage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteDirectory removes every blob stored under path.
func (d *Driver) DeleteDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	prefix := strings.TrimSuffix(p, "/") + "/"
	pager := d.client.NewListBlobsFlatPager(d.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	deleted := false
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return translateError(err, p)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			if _, err := d.client.DeleteBlob(ctx, d.container, *item.Name, nil); err != nil {
				return translateError(err, *item.Name)
			}
			deleted = true
		}
	}

	if !deleted {
		return activestorage.ErrNotFound
	}
	return nil
}

// LastModified returns the blob's last modification time.
func (d *Driver) LastModified(ctx context.Context, p string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(p); err != nil {
		return time.Time{}, err
	}

	props, err := d.blobProperties(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	if props == nil {
		return time.Time{}, fmt.Errorf("azure: last modified is missing for %s", p)
	}
	return *props, nil
}

// blobProperties fetches the blob's last-modified property, translating SDK
// errors to the activestorage taxonomy.
func (d *Driver) blobProperties(ctx context.Context, p string) (*time.Time, error) {
	blobClient := d.client.ServiceClient().NewContainerClient(d.container).NewBlobClient(p)
	resp, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return nil, translateError(err, p)
	}
	return resp.LastModified, nil
}

// translateError converts SDK errors to the activestorage taxonomy.
func translateError(err error, p string) error {
	if err == nil {
		return nil
	}

	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
		return activestorage.ErrNotFound
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure):
		return fmt.Errorf("%w: %v", activestorage.ErrAuthenticationFailed, err)
	}

	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		// No HTTP response at all means the service was unreachable.
		return fmt.Errorf("%w: %v", activestorage.ErrConnection, err)
	}
	return fmt.Errorf("azure: %s: %w", p, err)
}

// validatePath checks if a blob name is valid.
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

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
