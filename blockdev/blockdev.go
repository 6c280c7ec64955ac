// Package blockdev turns a backend.Storage byte store into the fixed-block
// device the filesystem layer is built on: read_block/write_block/sync_block
// (spec component 1), addressed by block number rather than byte offset.
package blockdev

import (
	"fmt"

	"github.com/psankar/simplefs/backend"
	"github.com/sirupsen/logrus"
)

// Size is the fixed block size simplefs images use. The superblock rejects
// any image claiming a different block size.
const Size = 4096

// Device is a block-addressed view over a backend.Storage.
type Device struct {
	storage backend.Storage
	log     logrus.FieldLogger
}

// New wraps storage as a Device of the fixed block Size.
func New(storage backend.Storage) *Device {
	return &Device{storage: storage, log: logrus.StandardLogger()}
}

// WithLogger attaches a logger, replacing the package-level default.
func (d *Device) WithLogger(log logrus.FieldLogger) *Device {
	d.log = log
	return d
}

// ReadBlock reads the full contents of block n.
func (d *Device) ReadBlock(n uint64) ([]byte, error) {
	buf := make([]byte, Size)
	read, err := d.storage.ReadAt(buf, int64(n)*Size)
	if err != nil && read != Size {
		return nil, fmt.Errorf("read block %d: %w", n, err)
	}
	return buf, nil
}

// WriteBlock overwrites the full contents of block n. buf may be at most
// Size bytes; shorter buffers are zero-padded, matching the on-disk
// zero-padding convention of spec.md §3.
func (d *Device) WriteBlock(n uint64, buf []byte) error {
	if len(buf) > Size {
		return fmt.Errorf("write block %d: payload of %d bytes exceeds block size %d", n, len(buf), Size)
	}
	full := buf
	if len(buf) < Size {
		full = make([]byte, Size)
		copy(full, buf)
	}
	w, err := d.storage.Writable()
	if err != nil {
		return fmt.Errorf("write block %d: %w", n, err)
	}
	if _, err := w.WriteAt(full, int64(n)*Size); err != nil {
		return fmt.Errorf("write block %d: %w", n, err)
	}
	d.log.WithField("block", n).Debug("wrote block")
	return nil
}

// SyncBlock flushes any buffered writes for block n to stable storage. The
// backend has no per-block granularity, so this syncs the whole device.
func (d *Device) SyncBlock(n uint64) error {
	w, err := d.storage.Writable()
	if err != nil {
		return fmt.Errorf("sync block %d: %w", n, err)
	}
	sys, err := d.storage.Sys()
	if err == nil && sys != nil {
		if syncErr := sys.Sync(); syncErr != nil {
			return fmt.Errorf("sync block %d: %w", n, syncErr)
		}
		return nil
	}
	// backing storage has no *os.File to fsync (e.g. an in-memory stub);
	// the write already landed via WriteAt, nothing more to flush.
	_ = w
	return nil
}
