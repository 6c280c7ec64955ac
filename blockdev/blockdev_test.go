package blockdev

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/psankar/simplefs/backend/file"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	storage, err := file.CreateFromPath(path, 8*Size)
	if err != nil {
		t.Fatalf("CreateFromPath: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return New(storage)
}

func TestWriteReadBlockRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	payload := bytes.Repeat([]byte{0xAB}, 100)

	if err := d.WriteBlock(2, payload); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := d.ReadBlock(2)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if len(got) != Size {
		t.Fatalf("expected %d bytes, got %d", Size, len(got))
	}
	if !bytes.Equal(got[:len(payload)], payload) {
		t.Fatalf("round trip mismatch: got %x want %x", got[:len(payload)], payload)
	}
	for _, b := range got[len(payload):] {
		if b != 0 {
			t.Fatalf("expected zero padding after payload, found %x", b)
		}
	}
}

func TestWriteBlockRejectsOversizedPayload(t *testing.T) {
	d := newTestDevice(t)
	if err := d.WriteBlock(0, make([]byte, Size+1)); err == nil {
		t.Fatal("expected error writing oversized block payload")
	}
}

func TestSyncBlock(t *testing.T) {
	d := newTestDevice(t)
	if err := d.WriteBlock(0, []byte("hello")); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := d.SyncBlock(0); err != nil {
		t.Fatalf("SyncBlock: %v", err)
	}
}

func TestIsBlockSpecialRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.img")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.Close()

	special, err := IsBlockSpecial(path)
	if err != nil {
		t.Fatalf("IsBlockSpecial: %v", err)
	}
	if special {
		t.Fatal("regular file reported as block special")
	}
}

func TestIsBlockSpecialMissingPath(t *testing.T) {
	special, err := IsBlockSpecial(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("IsBlockSpecial: %v", err)
	}
	if special {
		t.Fatal("missing path reported as block special")
	}
}
