package simplefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/psankar/simplefs/backend/file"
	"github.com/psankar/simplefs/blockdev"
	"github.com/psankar/simplefs/journal"
)

// formatTestImage writes the exact fresh-image layout of spec.md §6 to a
// scratch file and returns a Device over it, via the same Format the
// mkfs-simplefs CLI uses.
func formatTestImage(t *testing.T, nBlocks int) *blockdev.Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	storage, err := file.CreateFromPath(path, int64(nBlocks)*BlockSize)
	if err != nil {
		t.Fatalf("CreateFromPath: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	dev := blockdev.New(storage)

	if err := Format(dev, uint64(nBlocks), nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return dev
}

func mountTestFS(t *testing.T, nBlocks int) (*FileSystem, *Inode) {
	t.Helper()
	dev := formatTestImage(t, nBlocks)
	jnl := journal.NewBlockJournal(dev, JournalStartBlock)
	fs, root, err := FillSuper(context.Background(), dev, jnl, false, &MountOptions{}, nil)
	if err != nil {
		t.Fatalf("FillSuper: %v", err)
	}
	return fs, root
}
