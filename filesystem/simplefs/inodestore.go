package simplefs

import (
	"context"
)

const inodeStoreBlock uint64 = 1

// loadInodeStore reads the packed inode store block (block 1) raw.
func (fs *FileSystem) loadInodeStore() ([]byte, error) {
	b, err := fs.dev.ReadBlock(inodeStoreBlock)
	if err != nil {
		return nil, ErrIoError
	}
	return b, nil
}

func inodeOffset(index int) int { return index * inodeRecordSize }

// find locates the inode with the given inode_no, linearly scanning the
// first inodes_count entries (spec.md §4.3). Callers do not need to hold
// inodeMu themselves; find takes it internally.
func (fs *FileSystem) find(ctx context.Context, inodeNo uint64) (*inode, error) {
	if err := fs.lockCtx(ctx, &fs.inodeMu); err != nil {
		return nil, err
	}
	defer fs.inodeMu.Unlock()
	return fs.findLocked(ctx, inodeNo)
}

// findLocked requires inodeMu already held.
func (fs *FileSystem) findLocked(ctx context.Context, inodeNo uint64) (*inode, error) {
	count, err := fs.inodeCountSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	store, err := fs.loadInodeStore()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		off := inodeOffset(int(i))
		rec := inodeFromBytes(store[off : off+inodeRecordSize])
		if rec.inodeNo == inodeNo {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// appendInode writes ino at index inodes_count, increments inodes_count,
// and syncs the store block then the superblock (spec.md §4.3). Acquires
// the inode-store lock, then the superblock lock, per the documented
// ordering (inode-store → superblock, never the reverse).
func (fs *FileSystem) appendInode(ctx context.Context, ino *inode) error {
	if err := fs.lockCtx(ctx, &fs.inodeMu); err != nil {
		return err
	}
	defer fs.inodeMu.Unlock()

	if err := fs.lockCtx(ctx, &fs.sbMu); err != nil {
		return err
	}
	defer fs.sbMu.Unlock()

	if fs.sb.inodesCount >= uint64(maxInodes) {
		return ErrNoSpace
	}

	store, err := fs.loadInodeStore()
	if err != nil {
		return err
	}
	off := inodeOffset(int(fs.sb.inodesCount))
	copy(store[off:off+inodeRecordSize], ino.toBytes())
	if err := fs.dev.WriteBlock(inodeStoreBlock, store); err != nil {
		return ErrIoError
	}
	if err := fs.dev.SyncBlock(inodeStoreBlock); err != nil {
		return ErrIoError
	}

	return fs.bumpInodeCountLocked()
}

// update locates ino by inode_no and overwrites it in place, syncing the
// store block.
func (fs *FileSystem) update(ctx context.Context, ino *inode) error {
	if err := fs.lockCtx(ctx, &fs.inodeMu); err != nil {
		return err
	}
	defer fs.inodeMu.Unlock()
	return fs.updateLocked(ctx, ino)
}

// updateLocked requires inodeMu already held.
func (fs *FileSystem) updateLocked(ctx context.Context, ino *inode) error {
	count, err := fs.inodeCountSnapshot(ctx)
	if err != nil {
		return err
	}
	store, err := fs.loadInodeStore()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		off := inodeOffset(int(i))
		rec := inodeFromBytes(store[off : off+inodeRecordSize])
		if rec.inodeNo != ino.inodeNo {
			continue
		}
		copy(store[off:off+inodeRecordSize], ino.toBytes())
		if err := fs.dev.WriteBlock(inodeStoreBlock, store); err != nil {
			return ErrIoError
		}
		if err := fs.dev.SyncBlock(inodeStoreBlock); err != nil {
			return ErrIoError
		}
		return nil
	}
	return ErrNotFound
}
