// Package simplefs is the module root: a thin Open entry point
// composing backend, blockdev, journal and filesystem/simplefs the way a
// caller (a VFS bridge, a CLI, a test) is expected to, paralleling the
// teacher's top-level diskfs.Create/diskfs.Open convenience functions.
package simplefs

import (
	"context"
	"fmt"

	"github.com/psankar/simplefs/backend"
	"github.com/psankar/simplefs/backend/file"
	"github.com/psankar/simplefs/blockdev"
	fs "github.com/psankar/simplefs/filesystem/simplefs"
	"github.com/psankar/simplefs/journal"
	"github.com/sirupsen/logrus"
)

// FS is a mounted image: the filesystem handle plus its root directory
// handle, ready for Lookup/Create/Mkdir/Read/Write/IterateDir calls.
type FS struct {
	storage        backend.Storage
	journalStorage backend.Storage // non-nil only when the journal lives on a separate device
	fsys           *fs.FileSystem
	Root           *fs.Inode
}

// Open mounts the image at path (spec.md §4.6's mount/fill_super),
// attaching the journal described by opts ("" for an inode-backed journal
// at the reserved journal inode).
//
// opts may request an external journal device (spec.md §6's journal_dev=
// and journal_path= options). journal_path=<fs-path> naming a block
// special file is honored by opening that path as a second device; bare
// journal_dev=<devnum> is rejected with fs.ErrJournalInitFailed, since this
// module has no devnum-to-path resolution to open the device it names —
// Open never substitutes the inode-backed journal for a request it cannot
// actually satisfy.
func Open(ctx context.Context, path string, opts string, log logrus.FieldLogger) (*FS, error) {
	storage, err := file.OpenFromPath(path, false)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	dev := blockdev.New(storage)

	mountOpts, err := fs.ParseMountOptions(opts)
	if err != nil {
		storage.Close()
		return nil, err
	}

	var (
		jnl            journal.Journal
		journalStorage backend.Storage
		external       bool
	)
	switch {
	case mountOpts.UsesInodeBackedJournal():
		jnl = journal.NewBlockJournal(dev, fs.JournalStartBlock)
	case mountOpts.JournalDevPath != "":
		journalStorage, err = file.OpenFromPath(mountOpts.JournalDevPath, false)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("open journal device %s: %w", mountOpts.JournalDevPath, err)
		}
		jnl = journal.NewBlockJournal(blockdev.New(journalStorage), 0)
		external = true
	default:
		storage.Close()
		return nil, fs.ErrJournalInitFailed
	}

	fsys, root, err := fs.FillSuper(ctx, dev, jnl, external, mountOpts, log)
	if err != nil {
		if journalStorage != nil {
			journalStorage.Close()
		}
		storage.Close()
		return nil, err
	}
	return &FS{storage: storage, journalStorage: journalStorage, fsys: fsys, Root: root}, nil
}

// Lookup, Create, Mkdir, Read, Write and IterateDir forward to the mounted
// FileSystem, so callers only need to import this root package for common
// use.
func (f *FS) Lookup(ctx context.Context, parent *fs.Inode, name string) (*fs.Inode, error) {
	return f.fsys.Lookup(ctx, parent, name)
}

func (f *FS) Create(ctx context.Context, parent *fs.Inode, name string) (*fs.Inode, error) {
	return f.fsys.Create(ctx, parent, name)
}

func (f *FS) Mkdir(ctx context.Context, parent *fs.Inode, name string) (*fs.Inode, error) {
	return f.fsys.Mkdir(ctx, parent, name)
}

func (f *FS) Read(ctx context.Context, target *fs.Inode, offset uint64, length int) ([]byte, error) {
	return f.fsys.Read(ctx, target, offset, length)
}

func (f *FS) Write(ctx context.Context, target *fs.Inode, offset uint64, buf []byte) (int, error) {
	return f.fsys.Write(ctx, target, offset, buf)
}

func (f *FS) IterateDir(ctx context.Context, dir *fs.Inode, cursor uint64) ([]fs.DirEntry, uint64, error) {
	return f.fsys.IterateDir(ctx, dir, cursor)
}

// Close unmounts the image, calling put_super then kill_sb (spec.md §6's
// filesystem operation surface), then closes the backing storage and, if
// one was opened, the external journal device.
func (f *FS) Close(ctx context.Context) error {
	f.fsys.PutSuper(ctx)
	f.fsys.KillSB(ctx)
	if f.journalStorage != nil {
		if err := f.journalStorage.Close(); err != nil {
			f.storage.Close()
			return err
		}
	}
	return f.storage.Close()
}
