package simplefs

import (
	"context"
)

// lookupDir scans a directory inode's data block for name, returning the
// child's inode_no. Read-only traversal; not synchronized against
// concurrent appendChild calls beyond whatever atomicity the block device
// provides per block (spec.md §5: "that adapter is expected to serialize
// per-block access").
func (fs *FileSystem) lookupDir(dirInode *inode, name string) (uint64, error) {
	if !dirInode.isDir() {
		return 0, ErrNotDir
	}
	block, err := fs.dev.ReadBlock(dirInode.dataBlockNumber)
	if err != nil {
		return 0, ErrIoError
	}
	count := dirInode.dirChildrenCount()
	for i := uint64(0); i < count && i < maxDirRecords; i++ {
		off := int(i) * dirRecordSize
		rec := dirRecordFromBytes(block[off : off+dirRecordSize])
		if rec.filename == name {
			return rec.inodeNo, nil
		}
	}
	return 0, ErrNotFound
}

// appendChild writes a new directory record at index dir_children_count,
// syncs the data block, then persists the incremented dir_children_count
// via inode_store.update (spec.md §4.4). Callers must already hold dirMu;
// appendChild itself takes the inode-store lock through update, which in
// turn briefly takes the superblock lock to read inodes_count; inodes_count
// itself is not changed here.
func (fs *FileSystem) appendChild(ctx context.Context, dirInode *inode, name string, childInodeNo uint64) error {
	if !dirInode.isDir() {
		return ErrNotDir
	}
	if len(name) > dirRecordNameLen-1 {
		return ErrInvalidArg
	}
	count := dirInode.dirChildrenCount()
	if count >= maxDirRecords {
		return ErrDirFull
	}

	block, err := fs.dev.ReadBlock(dirInode.dataBlockNumber)
	if err != nil {
		return ErrIoError
	}
	rec := &dirRecord{filename: name, inodeNo: childInodeNo}
	off := int(count) * dirRecordSize
	copy(block[off:off+dirRecordSize], rec.toBytes())
	if err := fs.dev.WriteBlock(dirInode.dataBlockNumber, block); err != nil {
		return ErrIoError
	}
	if err := fs.dev.SyncBlock(dirInode.dataBlockNumber); err != nil {
		return ErrIoError
	}

	dirInode.setDirChildrenCount(count + 1)
	return fs.update(ctx, dirInode)
}
