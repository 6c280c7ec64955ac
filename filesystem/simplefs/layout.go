// Package simplefs implements the on-disk layout, metadata manager and
// filesystem operations described by the spec: a flat block-device-backed
// hierarchical filesystem with a fixed superblock, a packed inode store and
// directly addressed data blocks. Grounded on the teacher's filesystem/ext4
// package (superblockFromBytes/toBytes naming, inode/dirEntry codecs) and on
// original_source/simple.c and simple.h (field names, constants, on-disk
// ordering) — see DESIGN.md.
package simplefs

import (
	"encoding/binary"

	"github.com/psankar/simplefs/blockdev"
)

// BlockSize is the fixed block size of a simplefs image.
const BlockSize = blockdev.Size

// Magic is the only superblock magic value accepted at mount.
const Magic uint64 = 0x10032013

// Version is the only superblock version this implementation writes or
// accepts.
const Version uint64 = 1

// Mode bits, matching POSIX S_IFREG/S_IFDIR semantics (spec.md §3).
const (
	ModeRegular uint32 = 0100000
	ModeDir     uint32 = 0040000
)

// Reserved identifiers for a freshly formatted image (spec.md §3, §6).
const (
	RootInodeNumber    uint64 = 1
	JournalInodeNumber uint64 = 2
	WelcomeInodeNumber uint64 = 3

	RootDataBlockNumber    uint64 = 4
	JournalStartBlock      uint64 = 2
	JournalBlocks          uint64 = 2
	WelcomeDataBlockNumber uint64 = 5

	// ReservedInodeCount is the number of inodes present on a fresh image
	// before any create/mkdir call: root, journal, welcome.
	ReservedInodeCount uint64 = 3

	// FirstFreeBlock is the first block number available for allocation
	// on a fresh image (spec.md §3: "bits for blocks 0..=4 clear").
	FirstFreeBlock = 5

	// StartIno is the historical starting point referenced by spec.md
	// §4.6 step 4's inode-numbering formula; the allocator in this
	// implementation ignores the formula's arithmetic and instead scans
	// for the lowest unused inode number at or above this value, per the
	// §9 "Inode numbering" design note.
	StartIno uint64 = RootInodeNumber

	WelcomeFileName = "vanakkam"
	WelcomeFileBody = "Love is God. God is Love. Anbe Murugan.\n"
)

const (
	superblockVersionOff    = 0
	superblockMagicOff      = 8
	superblockBlockSizeOff  = 16
	superblockInodesCntOff  = 24
	superblockFreeBlocksOff = 32
	superblockFreeBlocksLen = 8 // one u64 bitmap word, per spec.md §3/§6
)

// superblock is the in-memory mirror of block 0.
type superblock struct {
	version      uint64
	magic        uint64
	blockSize    uint64
	inodesCount  uint64
	freeBlocks   uint64 // bit i set => block i free
}

// superblockFromBytes decodes block 0's contents, validating magic, block
// size and version as spec.md §4.1 requires.
func superblockFromBytes(b []byte) (*superblock, error) {
	if len(b) < superblockFreeBlocksOff+superblockFreeBlocksLen {
		return nil, ErrIoError
	}
	sb := &superblock{
		version:     binary.LittleEndian.Uint64(b[superblockVersionOff:]),
		magic:       binary.LittleEndian.Uint64(b[superblockMagicOff:]),
		blockSize:   binary.LittleEndian.Uint64(b[superblockBlockSizeOff:]),
		inodesCount: binary.LittleEndian.Uint64(b[superblockInodesCntOff:]),
		freeBlocks:  binary.LittleEndian.Uint64(b[superblockFreeBlocksOff:]),
	}
	if sb.magic != Magic {
		return nil, ErrBadMagic
	}
	if sb.blockSize != BlockSize {
		return nil, ErrBadBlockSize
	}
	if sb.version != Version {
		return nil, ErrUnsupportedVersion
	}
	return sb, nil
}

// toBytes packs the superblock into a full block-sized, zero-padded buffer.
func (sb *superblock) toBytes() []byte {
	b := make([]byte, BlockSize)
	binary.LittleEndian.PutUint64(b[superblockVersionOff:], sb.version)
	binary.LittleEndian.PutUint64(b[superblockMagicOff:], sb.magic)
	binary.LittleEndian.PutUint64(b[superblockBlockSizeOff:], sb.blockSize)
	binary.LittleEndian.PutUint64(b[superblockInodesCntOff:], sb.inodesCount)
	binary.LittleEndian.PutUint64(b[superblockFreeBlocksOff:], sb.freeBlocks)
	return b
}

// freeBlocksBytes returns the free_blocks bitmap word as a little-endian
// byte slice, the form bitmap.Bitmap consumes.
func (sb *superblock) freeBlocksBytes() []byte {
	b := make([]byte, superblockFreeBlocksLen)
	binary.LittleEndian.PutUint64(b, sb.freeBlocks)
	return b
}

func (sb *superblock) setFreeBlocksBytes(b []byte) {
	sb.freeBlocks = binary.LittleEndian.Uint64(b)
}

const (
	inodeModeOff            = 0
	inodeInodeNoOff         = 4
	inodeDataBlockNumberOff = 12
	inodePayloadOff         = 20
	// inodeRecordSize is the packed on-disk size of one inode record:
	// mode(4) + inode_no(8) + data_block_number(8) + payload(8).
	inodeRecordSize = 28
)

// maxInodes is N from spec.md §3: min(B / sizeof(inode), 64).
var maxInodes = func() int {
	n := BlockSize / inodeRecordSize
	if n > 64 {
		n = 64
	}
	return n
}()

// inode is the in-memory mirror of one packed inode record. payload holds
// dir_children_count for a directory or file_size for a regular file — the
// tagged union of spec.md §3, both u64-sized on disk.
type inode struct {
	mode            uint32
	inodeNo         uint64
	dataBlockNumber uint64
	payload         uint64
}

func (i *inode) isDir() bool {
	return i.mode&ModeDir == ModeDir
}

func (i *inode) dirChildrenCount() uint64 { return i.payload }
func (i *inode) setDirChildrenCount(n uint64) { i.payload = n }
func (i *inode) fileSize() uint64             { return i.payload }
func (i *inode) setFileSize(n uint64)         { i.payload = n }

func inodeFromBytes(b []byte) *inode {
	return &inode{
		mode:            binary.LittleEndian.Uint32(b[inodeModeOff:]),
		inodeNo:         binary.LittleEndian.Uint64(b[inodeInodeNoOff:]),
		dataBlockNumber: binary.LittleEndian.Uint64(b[inodeDataBlockNumberOff:]),
		payload:         binary.LittleEndian.Uint64(b[inodePayloadOff:]),
	}
}

func (i *inode) toBytes() []byte {
	b := make([]byte, inodeRecordSize)
	binary.LittleEndian.PutUint32(b[inodeModeOff:], i.mode)
	binary.LittleEndian.PutUint64(b[inodeInodeNoOff:], i.inodeNo)
	binary.LittleEndian.PutUint64(b[inodeDataBlockNumberOff:], i.dataBlockNumber)
	binary.LittleEndian.PutUint64(b[inodePayloadOff:], i.payload)
	return b
}

const (
	// dirRecordNameLen is the fixed, NUL-terminated filename field width.
	dirRecordNameLen = 255
	dirRecordSize    = dirRecordNameLen + 8
	// maxDirRecords is the number of dirRecord slots a single data block
	// can hold, per spec.md §4.4's DirFull bound.
	maxDirRecords = BlockSize / dirRecordSize
)

// dirRecord is one (filename, inode_no) pair in a directory's data block.
type dirRecord struct {
	filename string
	inodeNo  uint64
}

func dirRecordFromBytes(b []byte) *dirRecord {
	end := 0
	for end < dirRecordNameLen && b[end] != 0 {
		end++
	}
	return &dirRecord{
		filename: string(b[:end]),
		inodeNo:  binary.LittleEndian.Uint64(b[dirRecordNameLen:]),
	}
}

func (d *dirRecord) toBytes() []byte {
	b := make([]byte, dirRecordSize)
	copy(b[:dirRecordNameLen], d.filename)
	binary.LittleEndian.PutUint64(b[dirRecordNameLen:], d.inodeNo)
	return b
}
