// Package s3 provides an S3-compatible driver for activestorage.
//
// This driver works with AWS S3 and S3-compatible object stores such as
// MinIO, LocalStack, Cloudflare R2, and Wasabi.
//
// Basic usage:
//
//	driver, err := s3.New(ctx, s3.Config{
//	    Bucket: "my-bucket",
//	    Region: "us-east-1",
//	})
//
// For S3-compatible services:
//
//	driver, err := s3.New(ctx, s3.Config{
//	    Bucket:       "my-bucket",
//	    Endpoint:     "http://localhost:9000",
//	    UsePathStyle: true,
//	})
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("s3", NewFromConfig)
}

// Driver implements activestorage.Driver for S3-compatible object storage.
type Driver struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   Config
}

// New creates an S3 driver with the given configuration. Credential
// resolution follows the SDK's default chain unless static credentials are
// configured.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.PartSize == 0 {
		cfg.PartSize = 5 * 1024 * 1024
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", activestorage.ErrConfiguration, err)
	}

	var s3OptFns []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3OptFns...)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
	})

	return &Driver{
		client:   client,
		uploader: uploader,
		config:   cfg,
	}, nil
}

// NewWithClient creates an S3 driver around an existing client, useful for
// tests and pre-configured clients.
func NewWithClient(client *s3.Client, bucket string) *Driver {
	return &Driver{
		client:   client,
		uploader: manager.NewUploader(client),
		config:   Config{Bucket: bucket},
	}
}

// NewFromConfig creates an S3 driver from a config map.
// This is used by the activestorage registry.
func NewFromConfig(ctx context.Context, configMap map[string]string) (activestorage.Driver, error) {
	return New(ctx, ConfigFromMap(configMap))
}

// Write uploads content to the object at path.
func (d *Driver) Write(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	_, err := d.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(p)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return d.translateError(err, p)
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

	result, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(p)),
	})
	if err != nil {
		return nil, d.translateError(err, p)
	}
	defer func() { _ = result.Body.Close() }()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading object body for %s: %v", activestorage.ErrConnection, p, err)
	}
	return content, nil
}

// Delete removes the object at path.
// S3's DeleteObject succeeds for missing keys, so existence is checked first
// to preserve the contract's NotFound semantics.
func (d *Driver) Delete(ctx context.Context, p string) error {
	exists, err := d.Exists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return activestorage.ErrNotFound
	}

	_, err = d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(p)),
	})
	if err != nil {
		return d.translateError(err, p)
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

	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(p)),
	})
	if err != nil {
		if isNotFoundAPIError(err) {
			return false, nil
		}
		return false, d.translateError(err, p)
	}
	return true, nil
}

// DeleteDirectory removes every object stored under path using a single
// batch delete per listed page.
func (d *Driver) DeleteDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	prefix := d.fullKey(p)
	if prefix != "" {
		prefix += "/"
	}

	deleted := false
	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.config.Bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return d.translateError(err, p)
		}

		if len(page.Contents) == 0 {
			continue
		}

		identifiers := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			identifiers = append(identifiers, types.ObjectIdentifier{Key: obj.Key})
		}

		_, err = d.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(d.config.Bucket),
			Delete: &types.Delete{Objects: identifiers},
		})
		if err != nil {
			return d.translateError(err, p)
		}
		deleted = true
	}

	if !deleted {
		return activestorage.ErrNotFound
	}
	return nil
}

// LastModified returns the object's last modification time.
func (d *Driver) LastModified(ctx context.Context, p string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(p); err != nil {
		return time.Time{}, err
	}

	result, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(p)),
	})
	if err != nil {
		return time.Time{}, d.translateError(err, p)
	}
	if result.LastModified == nil {
		return time.Time{}, fmt.Errorf("s3: last modified is missing for %s", p)
	}
	return *result.LastModified, nil
}

// fullKey returns the full S3 key for a path.
func (d *Driver) fullKey(p string) string {
	if d.config.Prefix == "" {
		return p
	}
	return path.Join(d.config.Prefix, p)
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

// isNotFoundAPIError reports whether err is an S3 missing-key response.
func isNotFoundAPIError(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// translateError converts SDK errors to the activestorage taxonomy.
func (d *Driver) translateError(err error, p string) error {
	if err == nil {
		return nil
	}

	if isNotFoundAPIError(err) {
		return activestorage.ErrNotFound
	}

	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", activestorage.ErrAuthenticationFailed, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: bucket %s does not exist", activestorage.ErrConfiguration, d.config.Bucket)
		}
		return fmt.Errorf("s3: %s: %w", p, err)
	}

	// Anything that never produced an API response is a transport failure.
	return fmt.Errorf("%w: %v", activestorage.ErrConnection, err)
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
