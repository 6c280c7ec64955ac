package simplefs

import (
	"context"
	"fmt"
	"sync"

	"github.com/psankar/simplefs/blockdev"
	"github.com/psankar/simplefs/journal"
	"github.com/sirupsen/logrus"
)

// FileSystem is a mounted simplefs image: the in-memory superblock mirror,
// the three locks of spec.md §5, and the journal attached at mount time.
// Composes the allocator, inode store and directory managers under the
// documented lock ordering: directory-children → inode-store →
// superblock.
type FileSystem struct {
	dev *blockdev.Device
	jnl journal.Journal
	log logrus.FieldLogger

	// allocStart is the bit index the free-block scan begins at. Fixed to
	// FirstFreeBlock for this on-disk layout; see spec.md §4.2 and the
	// comment on allocateBlock.
	allocStart int

	// sbMu, inodeMu and dirMu are the superblock, inode-store-management
	// and directory-children-update locks of spec.md §5. Go has no
	// interruptible mutex primitive, so lockCtx checks ctx before and
	// after acquiring the plain sync.Mutex — a caller whose context is
	// already done before the lock is free observes ErrInterrupted
	// without blocking; one cancelled mid-wait still blocks until the
	// lock is free (sync.Mutex cannot be woken early), after which lockCtx
	// releases it at once and reports ErrInterrupted, so the caller never
	// holds it. This is this module's answer to the original's
	// mutex_lock_interruptible — see DESIGN.md.
	sbMu    sync.Mutex
	inodeMu sync.Mutex
	dirMu   sync.Mutex

	// sb is the single source of truth for inodes_count and free_blocks
	// during steady state (spec.md §5); guarded by sbMu.
	sb *superblock
}

// lockCtx acquires mu, returning ErrInterrupted instead of blocking if ctx
// is already done, and again immediately after acquiring it.
func (fs *FileSystem) lockCtx(ctx context.Context, mu *sync.Mutex) error {
	if err := ctx.Err(); err != nil {
		return ErrInterrupted
	}
	mu.Lock()
	if err := ctx.Err(); err != nil {
		mu.Unlock()
		return ErrInterrupted
	}
	return nil
}

// Inode is the opaque handle callers bind the result of Lookup/Create/Mkdir
// to and pass back into Read/Write/IterateDir/DestroyInode. Mirrors the
// role of a VFS inode handle: external dispatcher code holds one per open
// filesystem object without reaching into simplefs's on-disk record format.
type Inode struct {
	ino *inode
}

// IsDir reports whether the handle names a directory.
func (h *Inode) IsDir() bool { return h.ino.isDir() }

// InodeNo returns the on-disk inode number.
func (h *Inode) InodeNo() uint64 { return h.ino.inodeNo }

// FileSize returns the regular-file size; meaningless for a directory.
func (h *Inode) FileSize() uint64 { return h.ino.fileSize() }

// DirChildrenCount returns the directory child count; meaningless for a
// regular file.
func (h *Inode) DirChildrenCount() uint64 { return h.ino.dirChildrenCount() }

func wrapInode(i *inode) *Inode {
	if i == nil {
		return nil
	}
	return &Inode{ino: i}
}

// FillSuper reads block 0, decodes and validates the superblock, and
// attaches the journal described by opts (spec.md §4.6's "mount/fill_super").
// jnl is whatever journal the caller already constructed; externalJournal
// tells FillSuper whether that journal was built against a separate device
// (true) or the inode-backed journal at JournalStartBlock (false), so it can
// refuse to mount rather than silently accept a journal that doesn't match
// what opts actually requested (spec.md §6's journal_dev/journal_path
// options). root is returned separately since callers need to bind it to a
// handle before any filesystem operation can run.
func FillSuper(ctx context.Context, dev *blockdev.Device, jnl journal.Journal, externalJournal bool, opts *MountOptions, log logrus.FieldLogger) (*FileSystem, *Inode, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts == nil {
		opts = &MountOptions{}
	}
	fs := &FileSystem{
		dev:        dev,
		jnl:        jnl,
		log:        log,
		allocStart: FirstFreeBlock,
	}

	sb, err := fs.readSuperblock()
	if err != nil {
		return nil, nil, err
	}
	fs.sb = sb

	if jnl == nil {
		return nil, nil, ErrJournalInitFailed
	}
	if opts.UsesInodeBackedJournal() == externalJournal {
		return nil, nil, fmt.Errorf("%w: journal attachment does not match mount options", ErrJournalInitFailed)
	}

	root, err := fs.find(ctx, RootInodeNumber)
	if err != nil {
		return nil, nil, err
	}
	if !root.isDir() {
		return nil, nil, ErrNotDir
	}

	fs.log.WithFields(logrus.Fields{
		"inodes_count": fs.sb.inodesCount,
	}).Debug("simplefs: mounted")
	return fs, wrapInode(root), nil
}

// Lookup resolves name within parent, returning the child's in-memory inode
// handle. Requires parent.mode to be a directory.
func (fs *FileSystem) Lookup(ctx context.Context, parent *Inode, name string) (*Inode, error) {
	if !parent.ino.isDir() {
		return nil, ErrNotDir
	}
	childNo, err := fs.lookupDir(parent.ino, name)
	if err != nil {
		return nil, err
	}
	child, err := fs.find(ctx, childNo)
	if err != nil {
		// A directory record pointing at a nonexistent inode is treated
		// as NotFound: a crash between the inodes_count bump and the
		// inode-store write can leave a stale entry (spec.md §4.6).
		return nil, ErrNotFound
	}
	return wrapInode(child), nil
}

// createFsObject implements spec.md §4.6's common create/mkdir path.
func (fs *FileSystem) createFsObject(ctx context.Context, parent *Inode, name string, mode uint32) (*Inode, error) {
	if mode != ModeRegular && mode != ModeDir {
		return nil, ErrInvalidArg
	}
	if !parent.ino.isDir() {
		return nil, ErrNotDir
	}

	if err := fs.lockCtx(ctx, &fs.dirMu); err != nil {
		return nil, err
	}
	defer fs.dirMu.Unlock()

	count, err := fs.inodeCountSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if count >= uint64(maxInodes) {
		return nil, ErrNoSpace
	}

	inodeNo, err := fs.nextInodeNumber(ctx)
	if err != nil {
		return nil, err
	}

	block, err := fs.allocateBlock(ctx)
	if err != nil {
		return nil, err
	}

	child := &inode{mode: mode, inodeNo: inodeNo, dataBlockNumber: block}
	if err := fs.appendInode(ctx, child); err != nil {
		return nil, err
	}

	if err := fs.appendChild(ctx, parent.ino, name, inodeNo); err != nil {
		return nil, err
	}

	fs.log.WithFields(logrus.Fields{
		"name":     name,
		"inode_no": inodeNo,
		"block":    block,
	}).Debug("simplefs: created object")
	return wrapInode(child), nil
}

// nextInodeNumber scans the inode store for the lowest unused inode number
// at or above StartIno (spec.md §9's "Inode numbering" redesign: avoids the
// source's unchecked start_ino + (count - reserved) + 1 arithmetic, which
// can collide against an inconsistent store).
func (fs *FileSystem) nextInodeNumber(ctx context.Context) (uint64, error) {
	if err := fs.lockCtx(ctx, &fs.inodeMu); err != nil {
		return 0, err
	}
	defer fs.inodeMu.Unlock()

	count, err := fs.inodeCountSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	store, err := fs.loadInodeStore()
	if err != nil {
		return 0, err
	}
	used := make(map[uint64]bool, count)
	for i := uint64(0); i < count; i++ {
		off := inodeOffset(int(i))
		used[inodeFromBytes(store[off:off+inodeRecordSize]).inodeNo] = true
	}
	for candidate := StartIno; ; candidate++ {
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// Create implements spec.md §4.6's create(parent, name, mode) for a regular
// file.
func (fs *FileSystem) Create(ctx context.Context, parent *Inode, name string) (*Inode, error) {
	return fs.createFsObject(ctx, parent, name, ModeRegular)
}

// Mkdir implements spec.md §4.6's mkdir(parent, name, mode).
func (fs *FileSystem) Mkdir(ctx context.Context, parent *Inode, name string) (*Inode, error) {
	return fs.createFsObject(ctx, parent, name, ModeDir)
}

// DirEntry is one entry yielded by IterateDir.
type DirEntry struct {
	Name    string
	InodeNo uint64
}

// IterateDir implements spec.md §4.6's single-shot iterate_dir(dir, cursor):
// any nonzero cursor yields end-of-stream, preserving the source's
// behavior per the §9 "Single-shot directory iteration" design note.
func (fs *FileSystem) IterateDir(ctx context.Context, dir *Inode, cursor uint64) ([]DirEntry, uint64, error) {
	if !dir.ino.isDir() {
		return nil, cursor, ErrNotDir
	}
	if cursor != 0 {
		return nil, cursor, nil
	}

	block, err := fs.dev.ReadBlock(dir.ino.dataBlockNumber)
	if err != nil {
		return nil, cursor, ErrIoError
	}
	count := dir.ino.dirChildrenCount()
	entries := make([]DirEntry, 0, count)
	for i := uint64(0); i < count && i < maxDirRecords; i++ {
		off := int(i) * dirRecordSize
		rec := dirRecordFromBytes(block[off : off+dirRecordSize])
		entries = append(entries, DirEntry{Name: rec.filename, InodeNo: rec.inodeNo})
		cursor += dirRecordSize
	}
	return entries, cursor, nil
}

// Read implements spec.md §4.6's read(file, offset, len).
func (fs *FileSystem) Read(ctx context.Context, file *Inode, offset uint64, length int) ([]byte, error) {
	f := file.ino
	if f.isDir() {
		return nil, ErrNotDir
	}
	if offset >= f.fileSize() {
		return nil, nil
	}
	block, err := fs.dev.ReadBlock(f.dataBlockNumber)
	if err != nil {
		return nil, ErrIoError
	}
	n := f.fileSize() - offset
	if uint64(length) < n {
		n = uint64(length)
	}
	out := make([]byte, n)
	copy(out, block[offset:offset+n])
	return out, nil
}

// Write implements spec.md §4.6's write(file, offset, buf). Journals the
// data-block modification, sets file_size := offset + len (the simpler of
// the two rules discussed in the §9 "write truncation semantics" design
// note), and persists the inode.
func (fs *FileSystem) Write(ctx context.Context, file *Inode, offset uint64, buf []byte) (int, error) {
	f := file.ino
	if f.isDir() {
		return 0, ErrNotDir
	}
	if len(buf) == 0 {
		return 0, ErrInvalidArg
	}
	if offset+uint64(len(buf)) > BlockSize {
		return 0, ErrNoSpace
	}

	h, err := fs.jnl.Begin(1)
	if err != nil {
		return 0, ErrJournalInitFailed
	}

	block, err := fs.dev.ReadBlock(f.dataBlockNumber)
	if err != nil {
		return 0, ErrIoError
	}
	copy(block[offset:offset+uint64(len(buf))], buf)

	if err := fs.jnl.MarkDirty(h, f.dataBlockNumber, block); err != nil {
		return 0, ErrJournalIo
	}
	if err := fs.jnl.Commit(h, true); err != nil {
		return 0, ErrJournalIo
	}

	f.setFileSize(offset + uint64(len(buf)))
	if err := fs.update(ctx, f); err != nil {
		return 0, err
	}

	fs.log.WithFields(logrus.Fields{
		"inode_no": f.inodeNo,
		"offset":   offset,
		"len":      len(buf),
	}).Debug("simplefs: wrote file")
	return len(buf), nil
}

// DestroyInode releases the external dispatcher's reference to an inode
// handle. Nothing needs to be freed on this side: every inode and data
// block is retained for the lifetime of the image (spec.md's Non-goals
// exclude unlink/rmdir), so this is a logged no-op, grounded on the
// original's simplefs_destroy_inode, which is likewise a placeholder.
func (fs *FileSystem) DestroyInode(ctx context.Context, i *Inode) {
	fs.log.WithField("inode_no", i.ino.inodeNo).Debug("simplefs: destroy_inode")
}

// PutSuper is called when the filesystem is being unmounted, before
// KillSB. There is no superblock-private state beyond fs.sb to release.
func (fs *FileSystem) PutSuper(ctx context.Context) {
	fs.log.Debug("simplefs: put_super")
}

// KillSB tears down the mount. Grounded on the original's
// simplefs_kill_superblock, documented there as "a dummy function as of
// now": this implementation has no generic superblock machinery to hand
// back, so it is likewise a logged no-op.
func (fs *FileSystem) KillSB(ctx context.Context) {
	fs.log.Debug("simplefs: kill_sb")
}
