package azure

import (
	"fmt"

	activestorage "github.com/kaplanelad/active-storage"
)

// Errors returned while validating driver configuration.
var (
	ErrAccountRequired   = fmt.Errorf("%w: azure storage account is required", activestorage.ErrConfiguration)
	ErrContainerRequired = fmt.Errorf("%w: azure container is required", activestorage.ErrConfiguration)
	ErrAccessKeyRequired = fmt.Errorf("%w: azure access key is required", activestorage.ErrConfiguration)
)

// Config holds configuration for the Azure Blob Storage driver.
type Config struct {
	// Account is the Azure storage account name (required).
	Account string

	// Container is the blob container name (required).
	Container string

	// AccessKey is the storage account shared access key (required).
	AccessKey string

	// Endpoint is a custom blob service endpoint, e.g. an Azurite emulator
	// URL. Leave empty for the public Azure endpoint.
	Endpoint string
}

// ConfigFromMap creates a Config from a string map.
// Supported keys:
//   - account: storage account name (required)
//   - container: container name (required)
//   - access_key: shared access key (required)
//   - endpoint: custom blob service endpoint
func ConfigFromMap(m map[string]string) Config {
	var config Config
	if v, ok := m["account"]; ok {
		config.Account = v
	}
	if v, ok := m["container"]; ok {
		config.Container = v
	}
	if v, ok := m["access_key"]; ok {
		config.AccessKey = v
	}
	if v, ok := m["endpoint"]; ok {
		config.Endpoint = v
	}
	return config
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Account == "" {
		return ErrAccountRequired
	}
	if c.Container == "" {
		return ErrContainerRequired
	}
	if c.AccessKey == "" {
		return ErrAccessKeyRequired
	}
	return nil
}

// serviceURL returns the blob service endpoint for the account.
func (c Config) serviceURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.Account)
}
