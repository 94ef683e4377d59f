// Package sftp provides an SFTP driver for activestorage.
//
// Basic usage with password authentication:
//
//	driver, err := sftp.New(ctx, sftp.Config{
//	    Host:     "example.com",
//	    User:     "username",
//	    Password: "password",
//	})
//
// With SSH key authentication:
//
//	driver, err := sftp.New(ctx, sftp.Config{
//	    Host:    "example.com",
//	    User:    "username",
//	    KeyFile: "/path/to/id_rsa",
//	})
package sftp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	activestorage "github.com/kaplanelad/active-storage"
)

func init() {
	activestorage.Register("sftp", NewFromConfig)
}

// Driver implements activestorage.Driver over an SFTP connection.
type Driver struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	config     Config
}

// New creates an SFTP driver, dialing the server and opening an SFTP session.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}

	var authMethods []ssh.AuthMethod
	if cfg.Password != "" {
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	}
	if cfg.KeyFile != "" {
		keyAuth, err := keyFileAuth(cfg.KeyFile, cfg.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: loading key file: %v", activestorage.ErrConfiguration, err)
		}
		authMethods = append(authMethods, keyAuth)
	}

	// NOTE: host key verification is disabled; intended for trusted
	// networks and test servers.
	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		Timeout:         time.Duration(cfg.Timeout) * time.Second,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: SSH connection to %s: %v", activestorage.ErrConnection, addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("%w: SFTP session: %v", activestorage.ErrConnection, err)
	}

	return &Driver{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		config:     cfg,
	}, nil
}

// NewFromConfig creates an SFTP driver from a config map.
// This is used by the activestorage registry.
func NewFromConfig(ctx context.Context, configMap map[string]string) (activestorage.Driver, error) {
	return New(ctx, ConfigFromMap(configMap))
}

// keyFileAuth creates an SSH auth method from a private key file.
func keyFileAuth(keyFile, passphrase string) (ssh.AuthMethod, error) {
	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// Write stores content at path, creating parent directories as needed.
func (d *Driver) Write(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	fullPath := d.fullPath(p)
	if err := d.sftpClient.MkdirAll(path.Dir(fullPath)); err != nil {
		return fmt.Errorf("sftp: creating directory for %s: %w", p, err)
	}

	f, err := d.sftpClient.Create(fullPath)
	if err != nil {
		return fmt.Errorf("sftp: creating %s: %w", p, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("sftp: writing %s: %w", p, err)
	}
	return f.Close()
}

// Read returns the content of the remote file at path.
func (d *Driver) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(p); err != nil {
		return nil, err
	}

	f, err := d.sftpClient.Open(d.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, activestorage.ErrNotFound
		}
		return nil, fmt.Errorf("sftp: opening %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sftp: reading %s: %w", p, err)
	}
	return content, nil
}

// Delete removes the remote file at path.
func (d *Driver) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	err := d.sftpClient.Remove(d.fullPath(p))
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return activestorage.ErrNotFound
	}
	return fmt.Errorf("sftp: deleting %s: %w", p, err)
}

// Exists reports whether a remote file exists at path.
func (d *Driver) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(p); err != nil {
		return false, err
	}

	info, err := d.sftpClient.Stat(d.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("sftp: stat %s: %w", p, err)
	}
	return !info.IsDir(), nil
}

// DeleteDirectory removes the remote directory at path and everything
// under it.
func (d *Driver) DeleteDirectory(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(p); err != nil {
		return err
	}

	fullPath := d.fullPath(p)
	if _, err := d.sftpClient.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return activestorage.ErrNotFound
		}
		return fmt.Errorf("sftp: stat %s: %w", p, err)
	}
	if err := d.sftpClient.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("sftp: deleting directory %s: %w", p, err)
	}
	return nil
}

// LastModified returns the remote file's modification time.
func (d *Driver) LastModified(ctx context.Context, p string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if err := validatePath(p); err != nil {
		return time.Time{}, err
	}

	info, err := d.sftpClient.Stat(d.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, activestorage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("sftp: stat %s: %w", p, err)
	}
	return info.ModTime(), nil
}

// Close closes the SFTP session and the underlying SSH connection.
func (d *Driver) Close() error {
	var errs []error
	if d.sftpClient != nil {
		if err := d.sftpClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.sshClient != nil {
		if err := d.sshClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("sftp: close errors: %v", errs)
	}
	return nil
}

// fullPath returns the remote path for a relative path.
func (d *Driver) fullPath(p string) string {
	if d.config.Root == "" {
		return p
	}
	return path.Join(d.config.Root, p)
}

// validatePath checks if a remote path is valid. Traversal out of the
// configured root is rejected before any path joining happens.
func validatePath(p string) error {
	if p == "" {
		return activestorage.ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return activestorage.ErrInvalidPath
	}
	return nil
}

// Ensure Driver implements activestorage.Driver
var _ activestorage.Driver = (*Driver)(nil)
