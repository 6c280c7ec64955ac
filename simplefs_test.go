package simplefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/psankar/simplefs/backend/file"
	"github.com/psankar/simplefs/blockdev"
	fs "github.com/psankar/simplefs/filesystem/simplefs"
)

func formatScratchImage(t *testing.T, nBlocks uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	storage, err := file.CreateFromPath(path, int64(nBlocks)*fs.BlockSize)
	if err != nil {
		t.Fatalf("CreateFromPath: %v", err)
	}
	dev := blockdev.New(storage)
	if err := fs.Format(dev, nBlocks, nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

// TestMountUnmountMountIsIdempotent covers U5: mounting, unmounting, and
// remounting leaves the superblock bytes unchanged.
func TestMountUnmountMountIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := formatScratchImage(t, 16)

	first, err := Open(ctx, path, "", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	before, err := readBlockZero(path)
	if err != nil {
		t.Fatalf("readBlockZero: %v", err)
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(ctx, path, "", nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close(ctx)

	after, err := readBlockZero(path)
	if err != nil {
		t.Fatalf("readBlockZero: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("superblock bytes changed across mount/unmount/mount")
	}
}

func readBlockZero(path string) ([]byte, error) {
	storage, err := file.OpenFromPath(path, true)
	if err != nil {
		return nil, err
	}
	defer storage.Close()
	dev := blockdev.New(storage)
	return dev.ReadBlock(0)
}

func TestFreshImageEndToEnd(t *testing.T) {
	ctx := context.Background()
	path := formatScratchImage(t, 16)

	image, err := Open(ctx, path, "", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer image.Close(ctx)

	entries, _, err := image.IterateDir(ctx, image.Root, 0)
	if err != nil {
		t.Fatalf("IterateDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != fs.WelcomeFileName {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	welcome, err := image.Lookup(ctx, image.Root, fs.WelcomeFileName)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	body, err := image.Read(ctx, welcome, 0, 64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(body) != fs.WelcomeFileBody {
		t.Fatalf("Read = %q, want %q", body, fs.WelcomeFileBody)
	}
}
