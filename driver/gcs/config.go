package gcs

import (
	"fmt"

	activestorage "github.com/kaplanelad/active-storage"
)

// ErrBucketRequired is returned when no bucket name is configured.
var ErrBucketRequired = fmt.Errorf("%w: gcs bucket is required", activestorage.ErrConfiguration)

// Config holds configuration for the Google Cloud Storage driver.
type Config struct {
	// Bucket is the GCS bucket name (required).
	Bucket string

	// ProjectID is the Google Cloud project the bucket belongs to.
	// Optional; only needed by operations that create resources.
	ProjectID string

	// CredentialsFile is the path to a service account JSON key file.
	// If empty, Application Default Credentials are used.
	CredentialsFile string

	// Anonymous disables authentication entirely. Useful against public
	// buckets and local emulators.
	Anonymous bool

	// Endpoint is a custom storage endpoint, e.g. a fake-gcs-server URL.
	// Leave empty for the public Google endpoint.
	Endpoint string
}

// ConfigFromMap creates a Config from a string map.
// Supported keys:
//   - bucket: bucket name (required)
//   - project_id: Google Cloud project ID
//   - credentials_file: path to a service account key file
//   - anonymous: "true" to skip authentication
//   - endpoint: custom storage endpoint
func ConfigFromMap(m map[string]string) Config {
	var config Config
	if v, ok := m["bucket"]; ok {
		config.Bucket = v
	}
	if v, ok := m["project_id"]; ok {
		config.ProjectID = v
	}
	if v, ok := m["credentials_file"]; ok {
		config.CredentialsFile = v
	}
	if v, ok := m["anonymous"]; ok && (v == "true" || v == "1") {
		config.Anonymous = true
	}
	if v, ok := m["endpoint"]; ok {
		config.Endpoint = v
	}
	return config
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return ErrBucketRequired
	}
	return nil
}
