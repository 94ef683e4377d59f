package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	activestorage "github.com/kaplanelad/active-storage"
	"github.com/kaplanelad/active-storage/driver/drivertest"
)

func newTestDriver(t *testing.T) activestorage.Driver {
	t.Helper()

	d, err := New(context.Background(), Config{Location: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestConformance(t *testing.T) {
	drivertest.Run(t, newTestDriver)
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "storage")

	if _, err := New(context.Background(), Config{Location: root}); err != nil {
		t.Fatalf("New failed: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("Stat root failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("root is not a directory")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Location != "." {
		t.Errorf("Location = %q, want %q", config.Location, ".")
	}
	if config.DirPermissions != 0755 {
		t.Errorf("DirPermissions = %o, want %o", config.DirPermissions, 0755)
	}
	if config.FilePermissions != 0644 {
		t.Errorf("FilePermissions = %o, want %o", config.FilePermissions, 0644)
	}
}

func TestConfigFromMap(t *testing.T) {
	config := ConfigFromMap(map[string]string{"location": "/tmp/storage"})
	if config.Location != "/tmp/storage" {
		t.Errorf("Location = %q, want %q", config.Location, "/tmp/storage")
	}

	config = ConfigFromMap(map[string]string{})
	if config.Location != "." {
		t.Errorf("Location = %q, want default %q", config.Location, ".")
	}
}

func TestInvalidPaths(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	paths := []string{
		"",
		"..",
		"../escape.txt",
		"dir/../../escape.txt",
		"/absolute.txt",
	}

	for _, p := range paths {
		if err := d.Write(ctx, p, []byte("x")); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidPath", p, err)
		}
		if _, err := d.Read(ctx, p); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Read(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestDotDotInsideRootIsAllowed(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	// Traversal that stays inside the root is fine after cleaning.
	if err := d.Write(ctx, "dir/../file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := d.Read(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "content" {
		t.Errorf("Read = %q, want %q", got, "content")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	d, err := New(context.Background(), Config{Location: root})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := d.Write(context.Background(), "dir/file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "dir"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "file.txt" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want just file.txt", names)
	}
}

func TestRegistryOpen(t *testing.T) {
	store, err := activestorage.Open(context.Background(), "disk", map[string]string{
		"location": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Write(ctx, "file.txt", []byte("via registry")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := store.ReadString(ctx, "file.txt")
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if got != "via registry" {
		t.Errorf("ReadString = %q, want %q", got, "via registry")
	}
}
