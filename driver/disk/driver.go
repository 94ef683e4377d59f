// Package disk provides a local filesystem driver for activestorage.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("disk", NewFromConfig)
}

// Config holds configuration for the disk driver.
type Config struct {
	// Location is the root directory for all operations.
	// All paths are relative to this directory. It is created at build
	// time if it does not exist.
	Location string

	// DirPermissions is the permission mode for created directories.
	// Default: 0755
	DirPermissions os.FileMode

	// FilePermissions is the permission mode for created files.
	// Default: 0644
	FilePermissions os.FileMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Location:        ".",
		DirPermissions:  0755,
		FilePermissions: 0644,
	}
}

// ConfigFromMap creates a Config from a string map.
// Supported keys:
//   - location: root directory (default: ".")
func ConfigFromMap(m map[string]string) Config {
	config := DefaultConfig()
	if location, ok := m["location"]; ok && location != "" {
		config.Location = location
	}
	return config
}

// Driver implements activestorage.Driver for the local filesystem.
type Driver struct {
	config Config
}

// New creates a disk driver rooted at config.Location, creating the root
// directory if needed.
func New(ctx context.Context, config Config) (*Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.Location == "" {
		config.Location = "."
	}
	if config.DirPermissions == 0 {
		config.DirPermissions = 0755
	}
	if config.FilePermissions == 0 {
		config.FilePermissions = 0644
	}

	if err := os.MkdirAll(config.Location, config.DirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating root %s: %v", activestorage.ErrConfiguration, config.Location, err)
	}

	return &Driver{config: config}, nil
}

// NewFromConfig creates a disk driver from a config map.
// This is used by the activestorage registry.
func NewFromConfig(ctx context.Context, configMap map[string]string) (activestorage.Driver, error) {
	return New(ctx, ConfigFromMap(configMap))
}

// Write persists content at path, creating parent directories as needed.
// Content is written to a temporary file in the target directory and renamed
// into place, so a concurrent reader never observes a partial write.
func (d *Driver) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	fullPath := d.fullPath(path)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, d.config.DirPermissions); err != nil {
		return fmt.Errorf("disk: creating directory %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(fullPath)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpPath, content, d.config.FilePermissions); err != nil {
		return fmt.Errorf("disk: writing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disk: committing %s: %w", path, err)
	}
	return nil
}

// Read returns the content stored at path.
func (d *Driver) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(d.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, activestorage.ErrNotFound
		}
		return nil, fmt.Errorf("disk: reading %s: %w", path, err)
	}
	return content, nil
}

// Delete removes the file at path.
func (d *Driver) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	err := os.Remove(d.fullPath(path))
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return activestorage.ErrNotFound
	}
	return fmt.Errorf("disk: deleting %s: %w", path, err)
}

// Exists reports whether a file exists at path.
func (d *Driver) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(path); err != nil {
		return false, err
	}

	info, err := os.Stat(d.fullPath(path))
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("disk: checking existence of %s: %w", path, err)
}

// DeleteDirectory removes the directory at path and everything under it.
func (d *Driver) DeleteDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	fullPath := d.fullPath(path)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return activestorage.ErrNotFound
		}
		return fmt.Errorf("disk: checking directory %s: %w", path, err)
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("disk: deleting directory %s: %w", path, err)
	}
	return nil
}

// LastModified returns the modification time of the file at path.
func (d *Driver) LastModified(ctx context.Context, path string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(path); err != nil {
		return time.Time{}, err
	}

	info, err := os.Stat(d.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, activestorage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// fullPath returns the full filesystem path for a relative path.
func (d *Driver) fullPath(path string) string {
	return filepath.Join(d.config.Location, filepath.FromSlash(path))
}

// validatePath checks if a path is valid.
func validatePath(path string) error {
	if path == "" {
		return activestorage.ErrInvalidPath
	}

	// Reject absolute paths and traversal out of the root.
	cleaned := filepath.ToSlash(filepath.Clean(path))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return activestorage.ErrInvalidPath
	}
	return nil
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
