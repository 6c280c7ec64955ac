// Package journal implements the journaling transport consumed by the
// filesystem layer (spec.md §4.5): begin a transaction, mark metadata
// buffers dirty within it, commit synchronously. The on-disk journal area
// is fixed at two blocks (spec.md §3, §6) and holds at most one in-flight,
// one-block transaction at a time — a scaled-down sibling of the teacher's
// filesystem/ext4/journal.go, which implements the full multi-block,
// multi-tag jbd2 format for a production-sized journal. See DESIGN.md.
package journal

import (
	"errors"

	"github.com/google/uuid"
)

// Journal block types, named after jbd2's, though this journal only ever
// writes one descriptor and one commit block per transaction.
type blockType uint32

const (
	blockTypeDescriptor blockType = 1
	blockTypeCommit     blockType = 2

	// magic is the 4-byte header every journal block in this area starts
	// with, borrowed from jbd2's own magic number.
	magic uint32 = 0xC03B3998
)

// header is the common prefix of every journal block written by this
// package.
type header struct {
	magic     uint32
	blockType blockType
	sequence  uint32
}

var (
	// ErrNoCapacity is returned by Begin when the journal cannot reserve
	// the requested number of blocks.
	ErrNoCapacity = errors.New("journal: not enough capacity for transaction")
	// ErrAlreadyCommitted is returned by MarkDirty or Commit called again
	// on a handle that has already been committed.
	ErrAlreadyCommitted = errors.New("journal: transaction already committed")
)

// Handle identifies an in-flight transaction. The UUID exists purely for
// logging and tracing — nothing about it is persisted, since the two-block
// on-disk journal area (spec.md §6) has no field to hold one.
type Handle struct {
	ID       uuid.UUID
	sequence uint32
	nBlocks  int
	dirty    []dirtyBuffer
	done     bool
}

type dirtyBuffer struct {
	blockNo uint64
	data    []byte
}

// Journal is the interface the filesystem layer (spec.md component 7)
// consumes; the backing implementation is treated here as an external
// collaborator per spec.md §1, with BlockJournal as this module's concrete
// instance of it.
type Journal interface {
	// Begin reserves capacity for nBlocks metadata buffers and returns a
	// handle for the transaction.
	Begin(nBlocks int) (*Handle, error)
	// MarkDirty declares intent to modify this buffer transactionally.
	MarkDirty(h *Handle, blockNo uint64, data []byte) error
	// Commit flushes the transaction. sync=true returns only once durable.
	Commit(h *Handle, sync bool) error
}
