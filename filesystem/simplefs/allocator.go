package simplefs

import (
	"context"

	"github.com/psankar/simplefs/bitmap"
)

// readSuperblock loads and decodes block 0 from the device, without taking
// any lock — callers that need a consistent view of the in-memory mirror
// should use fs.sb directly under sbMu instead.
func (fs *FileSystem) readSuperblock() (*superblock, error) {
	b, err := fs.dev.ReadBlock(0)
	if err != nil {
		return nil, ErrIoError
	}
	return superblockFromBytes(b)
}

// writeSuperblock persists sb to block 0 and syncs it. Callers must hold
// sbMu.
func (fs *FileSystem) writeSuperblock(sb *superblock) error {
	if err := fs.dev.WriteBlock(0, sb.toBytes()); err != nil {
		return ErrIoError
	}
	if err := fs.dev.SyncBlock(0); err != nil {
		return ErrIoError
	}
	return nil
}

// allocateBlock scans free_blocks starting at fs.allocStart (spec.md §4.2:
// "scans free_blocks starting from bit 3 ... the caller of the initial scan
// must honor the configured starting index" — this fixed on-disk layout
// configures that index to FirstFreeBlock, past the reserved superblock,
// inode store, journal and root directory blocks), clears the lowest free
// bit found, and synchronously persists the superblock before returning.
func (fs *FileSystem) allocateBlock(ctx context.Context) (uint64, error) {
	if err := fs.lockCtx(ctx, &fs.sbMu); err != nil {
		return 0, err
	}
	defer fs.sbMu.Unlock()

	bm := bitmap.FromBytes(fs.sb.freeBlocksBytes())
	block := bm.FirstSetFrom(fs.allocStart)
	if block < 0 {
		fs.log.Warn("simplefs: no more free blocks available")
		return 0, ErrNoSpace
	}
	if err := bm.Clear(block); err != nil {
		return 0, ErrIoError
	}
	fs.sb.setFreeBlocksBytes(bm.ToBytes())
	if err := fs.writeSuperblock(fs.sb); err != nil {
		return 0, err
	}
	fs.log.WithField("block", block).Debug("simplefs: allocated block")
	return uint64(block), nil
}

// inodeCountSnapshot reads inodes_count under the superblock lock.
func (fs *FileSystem) inodeCountSnapshot(ctx context.Context) (uint64, error) {
	if err := fs.lockCtx(ctx, &fs.sbMu); err != nil {
		return 0, err
	}
	defer fs.sbMu.Unlock()
	return fs.sb.inodesCount, nil
}

// bumpInodeCount increments inodes_count and persists the superblock.
// Callers that already hold sbMu (e.g. appendInode, which takes the
// inode-store lock then the superblock lock per spec.md §4.3's ordering)
// must call bumpInodeCountLocked instead.
func (fs *FileSystem) bumpInodeCount(ctx context.Context) error {
	if err := fs.lockCtx(ctx, &fs.sbMu); err != nil {
		return err
	}
	defer fs.sbMu.Unlock()
	return fs.bumpInodeCountLocked()
}

// bumpInodeCountLocked requires sbMu already held.
func (fs *FileSystem) bumpInodeCountLocked() error {
	fs.sb.inodesCount++
	return fs.writeSuperblock(fs.sb)
}
