package activestorage_test

import (
	"context"
	"testing"

	activestorage "github.com/kaplanelad/active-storage"
	"github.com/kaplanelad/active-storage/driver/compress"
	"github.com/kaplanelad/active-storage/driver/disk"
	"github.com/kaplanelad/active-storage/driver/inmem"
)

// TestIntegrationDiskMirroredToMemory demonstrates the full stack:
// a disk primary mirrored to in-memory secondaries.
func TestIntegrationDiskMirroredToMemory(t *testing.T) {
	ctx := context.Background()

	primary, err := activestorage.Open(ctx, "disk", map[string]string{
		"location": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Open disk failed: %v", err)
	}

	cache := inmem.New()
	backup := inmem.New()

	multi := activestorage.NewMultiStore(primary).AddStores(map[string]*activestorage.Store{
		"cache":  activestorage.NewStore(cache),
		"backup": activestorage.NewStore(backup),
	})

	// Write through the mirror
	outcome, err := multi.MirrorStoresFromPrimary().Write(ctx, "users/1.json", []byte(`{"name":"alice"}`))
	if err != nil {
		t.Fatalf("mirrored Write failed: %v", err)
	}
	if !outcome.Ok() {
		t.Fatalf("mirroring incomplete: %v", outcome.Failures)
	}

	// Reads are answered by the primary
	content, err := multi.ReadString(ctx, "users/1.json")
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if content != `{"name":"alice"}` {
		t.Errorf("ReadString = %q, want the written record", content)
	}

	// Every secondary received the write
	for name, d := range map[string]*inmem.Driver{"cache": cache, "backup": backup} {
		got, err := d.Read(ctx, "users/1.json")
		if err != nil {
			t.Fatalf("Read from %s failed: %v", name, err)
		}
		if string(got) != `{"name":"alice"}` {
			t.Errorf("content on %s = %q, want the written record", name, got)
		}
	}

	// Mirrored delete removes the record everywhere
	outcome, err = multi.MirrorStoresFromPrimary().Delete(ctx, "users/1.json")
	if err != nil {
		t.Fatalf("mirrored Delete failed: %v", err)
	}
	if !outcome.Ok() {
		t.Fatalf("delete mirroring incomplete: %v", outcome.Failures)
	}
	if exists, _ := multi.Exists(ctx, "users/1.json"); exists {
		t.Error("record still exists on primary after mirrored delete")
	}
}

// TestIntegrationCompressedDisk demonstrates stacking the compression
// decorator on the disk driver.
func TestIntegrationCompressedDisk(t *testing.T) {
	ctx := context.Background()

	inner, err := disk.New(ctx, disk.Config{Location: t.TempDir()})
	if err != nil {
		t.Fatalf("disk.New failed: %v", err)
	}
	store := activestorage.NewStore(compress.New(inner, compress.Zstd()))

	content := []byte(`{"event":"signup","user":"alice"}`)
	if err := store.Write(ctx, "events/today.json", content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(ctx, "events/today.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read = %q, want %q", got, content)
	}

	// The bytes on disk are not the plaintext
	raw, err := inner.Read(ctx, "events/today.json")
	if err != nil {
		t.Fatalf("inner Read failed: %v", err)
	}
	if string(raw) == string(content) {
		t.Error("disk holds uncompressed content")
	}
}

// TestIntegrationMirrorGroups demonstrates best-effort replication to a
// named subset of stores.
func TestIntegrationMirrorGroups(t *testing.T) {
	ctx := context.Background()

	primary, err := activestorage.Open(ctx, "inmem", nil)
	if err != nil {
		t.Fatalf("Open inmem failed: %v", err)
	}

	usEast := inmem.New()
	usWest := inmem.New()
	euCentral := inmem.New()

	multi := activestorage.NewMultiStore(primary).AddStores(map[string]*activestorage.Store{
		"us-east":    activestorage.NewStore(usEast),
		"us-west":    activestorage.NewStore(usWest),
		"eu-central": activestorage.NewStore(euCentral),
	})
	if err := multi.AddMirrorGroup("us", []string{"us-east", "us-west"}); err != nil {
		t.Fatalf("AddMirrorGroup failed: %v", err)
	}

	mirror, ok := multi.MirrorGroup("us")
	if !ok {
		t.Fatal("MirrorGroup(us) not found")
	}
	outcome, err := mirror.Write(ctx, "regional.txt", []byte("us only"))
	if err != nil {
		t.Fatalf("group Write failed: %v", err)
	}
	if !outcome.Ok() {
		t.Fatalf("group mirroring incomplete: %v", outcome.Failures)
	}

	for name, d := range map[string]*inmem.Driver{"us-east": usEast, "us-west": usWest} {
		exists, err := d.Exists(ctx, "regional.txt")
		if err != nil {
			t.Fatalf("Exists on %s failed: %v", name, err)
		}
		if !exists {
			t.Errorf("group member %s missed the write", name)
		}
	}
	if exists, _ := euCentral.Exists(ctx, "regional.txt"); exists {
		t.Error("group write leaked outside the group")
	}
}
