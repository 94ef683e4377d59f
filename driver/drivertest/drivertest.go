// Package drivertest provides a conformance suite for activestorage
// drivers. Driver packages run it against a fresh driver instance to
// verify the shared contract:
//
//	func TestConformance(t *testing.T) {
//	    drivertest.Run(t, func(t *testing.T) activestorage.Driver {
//	        return inmem.New()
//	    })
//	}
package drivertest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	activestorage "github.com/kaplanelad/active-storage"
)

// NewDriverFunc returns a fresh, empty driver for a single subtest.
type NewDriverFunc func(t *testing.T) activestorage.Driver

// Run executes the full conformance suite against drivers produced by
// newDriver. Each subtest gets its own driver instance.
func Run(t *testing.T, newDriver NewDriverFunc) {
	t.Run("WriteRead", func(t *testing.T) { testWriteRead(t, newDriver(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newDriver(t)) })
	t.Run("WriteEmpty", func(t *testing.T) { testWriteEmpty(t, newDriver(t)) })
	t.Run("WriteNested", func(t *testing.T) { testWriteNested(t, newDriver(t)) })
	t.Run("ReadNotFound", func(t *testing.T) { testReadNotFound(t, newDriver(t)) })
	t.Run("Exists", func(t *testing.T) { testExists(t, newDriver(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newDriver(t)) })
	t.Run("DeleteNotFound", func(t *testing.T) { testDeleteNotFound(t, newDriver(t)) })
	t.Run("DeleteDirectory", func(t *testing.T) { testDeleteDirectory(t, newDriver(t)) })
	t.Run("DeleteDirectoryNotFound", func(t *testing.T) { testDeleteDirectoryNotFound(t, newDriver(t)) })
	t.Run("LastModified", func(t *testing.T) { testLastModified(t, newDriver(t)) })
	t.Run("LastModifiedNotFound", func(t *testing.T) { testLastModifiedNotFound(t, newDriver(t)) })
	t.Run("InvalidPath", func(t *testing.T) { testInvalidPath(t, newDriver(t)) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceledContext(t, newDriver(t)) })
}

func testWriteRead(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	content := []byte("hello storage")
	if err := d.Write(ctx, "greetings/hello.txt", content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := d.Read(ctx, "greetings/hello.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Read = %q, want %q", got, content)
	}
}

func testOverwrite(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.Write(ctx, "file.txt", []byte("first")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := d.Write(ctx, "file.txt", []byte("second")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	got, err := d.Read(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Read = %q, want %q", got, "second")
	}
}

func testWriteEmpty(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.Write(ctx, "empty.txt", []byte{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := d.Read(ctx, "empty.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read returned %d bytes, want 0", len(got))
	}

	exists, err := d.Exists(ctx, "empty.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists = false for empty file, want true")
	}
}

func testWriteNested(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.Write(ctx, "a/b/c/deep.txt", []byte("nested")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := d.Read(ctx, "a/b/c/deep.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "nested" {
		t.Errorf("Read = %q, want %q", got, "nested")
	}
}

func testReadNotFound(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	_, err := d.Read(ctx, "missing.txt")
	if !activestorage.IsNotFound(err) {
		t.Errorf("Read error = %v, want ErrNotFound", err)
	}
}

func testExists(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	exists, err := d.Exists(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Exists = true before write, want false")
	}

	if err := d.Write(ctx, "file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	exists, err = d.Exists(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists = false after write, want true")
	}
}

func testDelete(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.Write(ctx, "file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := d.Delete(ctx, "file.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := d.Exists(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Exists = true after delete, want false")
	}

	if _, err := d.Read(ctx, "file.txt"); !activestorage.IsNotFound(err) {
		t.Errorf("Read after delete error = %v, want ErrNotFound", err)
	}
}

func testDeleteNotFound(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.Delete(ctx, "missing.txt"); !activestorage.IsNotFound(err) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}

	// Second delete of the same path behaves the same way.
	if err := d.Write(ctx, "file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := d.Delete(ctx, "file.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := d.Delete(ctx, "file.txt"); !activestorage.IsNotFound(err) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func testDeleteDirectory(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	files := []string{"dir/a.txt", "dir/sub/b.txt", "dir/sub/deeper/c.txt"}
	for _, p := range files {
		if err := d.Write(ctx, p, []byte("content")); err != nil {
			t.Fatalf("Write %s failed: %v", p, err)
		}
	}
	if err := d.Write(ctx, "other/keep.txt", []byte("keep")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := d.DeleteDirectory(ctx, "dir"); err != nil {
		t.Fatalf("DeleteDirectory failed: %v", err)
	}

	for _, p := range files {
		exists, err := d.Exists(ctx, p)
		if err != nil {
			t.Fatalf("Exists %s failed: %v", p, err)
		}
		if exists {
			t.Errorf("Exists(%s) = true after DeleteDirectory, want false", p)
		}
	}

	// Files outside the directory are untouched.
	exists, err := d.Exists(ctx, "other/keep.txt")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("DeleteDirectory removed a file outside the directory")
	}
}

func testDeleteDirectoryNotFound(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if err := d.DeleteDirectory(ctx, "missing"); !activestorage.IsNotFound(err) {
		t.Errorf("DeleteDirectory error = %v, want ErrNotFound", err)
	}
}

func testLastModified(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	if err := d.Write(ctx, "file.txt", []byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	after := time.Now().Add(time.Minute)

	mod, err := d.LastModified(ctx, "file.txt")
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if mod.Before(before) || mod.After(after) {
		t.Errorf("LastModified = %v, want between %v and %v", mod, before, after)
	}
}

func testLastModifiedNotFound(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	if _, err := d.LastModified(ctx, "missing.txt"); !activestorage.IsNotFound(err) {
		t.Errorf("LastModified error = %v, want ErrNotFound", err)
	}
}

func testInvalidPath(t *testing.T, d activestorage.Driver) {
	ctx := context.Background()

	// Empty paths and traversal out of the driver's root are rejected
	// uniformly, before touching the medium.
	paths := []string{
		"",
		"..",
		"../escape.txt",
		"dir/../../escape.txt",
	}

	for _, p := range paths {
		if err := d.Write(ctx, p, []byte("x")); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidPath", p, err)
		}
		if _, err := d.Read(ctx, p); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Read(%q) error = %v, want ErrInvalidPath", p, err)
		}
		if err := d.Delete(ctx, p); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Delete(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func testCanceledContext(t *testing.T, d activestorage.Driver) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Write(ctx, "file.txt", []byte("content")); err == nil {
		t.Error("Write with canceled context succeeded, want error")
	}
	if _, err := d.Read(ctx, "file.txt"); err == nil {
		t.Error("Read with canceled context succeeded, want error")
	}
}
