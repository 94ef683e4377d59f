package activestorage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// memDriver is a minimal map-backed driver for tests in this package.
// Driver packages have their own conformance coverage; this stub only
// needs faithful contract semantics.
type memDriver struct {
	mu      sync.Mutex
	objects map[string][]byte
	mod     map[string]time.Time
}

func newMemDriver() *memDriver {
	return &memDriver{
		objects: make(map[string][]byte),
		mod:     make(map[string]time.Time),
	}
}

func (d *memDriver) Write(_ context.Context, path string, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := make([]byte, len(content))
	copy(stored, content)
	d.objects[path] = stored
	d.mod[path] = time.Now()
	return nil
}

func (d *memDriver) Read(_ context.Context, path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, ok := d.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	return content, nil
}

func (d *memDriver) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.objects[path]; !ok {
		return ErrNotFound
	}
	delete(d.objects, path)
	delete(d.mod, path)
	return nil
}

func (d *memDriver) Exists(_ context.Context, path string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.objects[path]
	return ok, nil
}

func (d *memDriver) DeleteDirectory(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := false
	for p := range d.objects {
		if strings.HasPrefix(p, path+"/") {
			delete(d.objects, p)
			delete(d.mod, p)
			removed = true
		}
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (d *memDriver) LastModified(_ context.Context, path string) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mod, ok := d.mod[path]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return mod, nil
}

// failDriver fails every operation with a fixed error.
type failDriver struct {
	err error
}

func (d *failDriver) Write(context.Context, string, []byte) error { return d.err }
func (d *failDriver) Read(context.Context, string) ([]byte, error) {
	return nil, d.err
}
func (d *failDriver) Delete(context.Context, string) error          { return d.err }
func (d *failDriver) Exists(context.Context, string) (bool, error)  { return false, d.err }
func (d *failDriver) DeleteDirectory(context.Context, string) error { return d.err }
func (d *failDriver) LastModified(context.Context, string) (time.Time, error) {
	return time.Time{}, d.err
}

func TestStoreWriteRead(t *testing.T) {
	store := NewStore(newMemDriver())
	ctx := context.Background()

	content := []byte("hello store")
	if err := store.Write(ctx, "file.txt", content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Read = %q, want %q", got, content)
	}
}

func TestStoreReadString(t *testing.T) {
	store := NewStore(newMemDriver())
	ctx := context.Background()

	if err := store.Write(ctx, "file.txt", []byte("hello string")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.ReadString(ctx, "file.txt")
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if got != "hello string" {
		t.Errorf("ReadString = %q, want %q", got, "hello string")
	}
}

func TestStoreReadStringInvalidUTF8(t *testing.T) {
	store := NewStore(newMemDriver())
	ctx := context.Background()

	if err := store.Write(ctx, "binary.dat", []byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	_, err := store.ReadString(ctx, "binary.dat")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("ReadString error = %v, want ErrDecode", err)
	}
}

func TestStoreReadStringNotFound(t *testing.T) {
	store := NewStore(newMemDriver())

	_, err := store.ReadString(context.Background(), "missing.txt")
	if !IsNotFound(err) {
		t.Errorf("ReadString error = %v, want ErrNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(newMemDriver())
	ctx := context.Background()

	if err := store.Write(ctx, "file.txt", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Delete(ctx, "file.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "file.txt"); !IsNotFound(err) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestStoreDriver(t *testing.T) {
	driver := newMemDriver()
	store := NewStore(driver)

	if store.Driver() != Driver(driver) {
		t.Error("Driver did not return the backing driver")
	}
}
