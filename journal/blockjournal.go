package journal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/google/uuid"
	"github.com/psankar/simplefs/blockdev"
	"github.com/sirupsen/logrus"
)

// BlockJournal is the concrete Journal implementation backing a simplefs
// image: a fixed two-block journal area (descriptor block, commit block),
// holding at most one in-flight, one-block transaction at a time.
//
// Only hash/crc32 (IEEE) is used for the block checksums; the teacher's
// filesystem/ext4/crc package (CRC32C) was not retrieved into the example
// pack this module was built from — see DESIGN.md.
type BlockJournal struct {
	dev         *blockdev.Device
	descBlock   uint64
	commitBlock uint64

	mu       sync.Mutex
	sequence uint32
	inFlight bool
	log      logrus.FieldLogger
}

// NewBlockJournal creates a journal occupying exactly two blocks starting
// at startBlock (spec.md §3: the journal "starts at block 2 and occupies
// journal_blocks blocks").
func NewBlockJournal(dev *blockdev.Device, startBlock uint64) *BlockJournal {
	return &BlockJournal{
		dev:         dev,
		descBlock:   startBlock,
		commitBlock: startBlock + 1,
		log:         logrus.StandardLogger(),
	}
}

// WithLogger attaches a logger, replacing the package-level default.
func (j *BlockJournal) WithLogger(log logrus.FieldLogger) *BlockJournal {
	j.log = log
	return j
}

var _ Journal = (*BlockJournal)(nil)

// Begin reserves capacity for a transaction. This journal only ever
// supports a single one-block transaction in flight, matching the "journal
// transaction sized for one block" contract write() uses (spec.md §4.6).
func (j *BlockJournal) Begin(nBlocks int) (*Handle, error) {
	if nBlocks < 1 {
		return nil, fmt.Errorf("%w: nBlocks must be at least 1", ErrNoCapacity)
	}
	if nBlocks > 1 {
		return nil, fmt.Errorf("%w: journal area holds at most one block per transaction", ErrNoCapacity)
	}

	j.mu.Lock()
	if j.inFlight {
		j.mu.Unlock()
		return nil, fmt.Errorf("%w: a transaction is already open", ErrNoCapacity)
	}
	j.inFlight = true
	j.sequence++
	seq := j.sequence
	j.mu.Unlock()

	h := &Handle{
		ID:       uuid.New(),
		sequence: seq,
		nBlocks:  nBlocks,
	}
	j.log.WithFields(logrus.Fields{"txn": h.ID, "sequence": seq}).Debug("journal: began transaction")
	return h, nil
}

// MarkDirty declares blockNo's buffer dirty within the transaction.
func (j *BlockJournal) MarkDirty(h *Handle, blockNo uint64, data []byte) error {
	if h.done {
		return ErrAlreadyCommitted
	}
	if len(h.dirty) >= h.nBlocks {
		return fmt.Errorf("%w: transaction already holds %d buffers", ErrNoCapacity, h.nBlocks)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	h.dirty = append(h.dirty, dirtyBuffer{blockNo: blockNo, data: buf})
	return nil
}

// Commit writes a descriptor block and a commit block into the journal
// area, then checkpoints each dirty buffer to its real on-disk location.
// sync=true fsyncs both the journal area and the checkpointed blocks before
// returning.
func (j *BlockJournal) Commit(h *Handle, sync bool) error {
	if h.done {
		return ErrAlreadyCommitted
	}

	desc := encodeDescriptorBlock(h.sequence, h.dirty)
	if err := j.dev.WriteBlock(j.descBlock, desc); err != nil {
		return fmt.Errorf("journal: write descriptor block: %w", err)
	}

	commit := encodeCommitBlock(h.sequence, desc)
	if err := j.dev.WriteBlock(j.commitBlock, commit); err != nil {
		return fmt.Errorf("journal: write commit block: %w", err)
	}

	if sync {
		if err := j.dev.SyncBlock(j.descBlock); err != nil {
			return fmt.Errorf("journal: sync descriptor block: %w", err)
		}
		if err := j.dev.SyncBlock(j.commitBlock); err != nil {
			return fmt.Errorf("journal: sync commit block: %w", err)
		}
	}

	for _, db := range h.dirty {
		if err := j.dev.WriteBlock(db.blockNo, db.data); err != nil {
			return fmt.Errorf("journal: checkpoint block %d: %w", db.blockNo, err)
		}
		if sync {
			if err := j.dev.SyncBlock(db.blockNo); err != nil {
				return fmt.Errorf("journal: sync checkpointed block %d: %w", db.blockNo, err)
			}
		}
	}

	h.done = true
	j.mu.Lock()
	j.inFlight = false
	j.mu.Unlock()

	j.log.WithFields(logrus.Fields{"txn": h.ID, "sequence": h.sequence, "blocks": len(h.dirty)}).Debug("journal: committed transaction")
	return nil
}

// encodeDescriptorBlock packs the header, one block-number tag per dirty
// buffer, and a trailing checksum into a single block-sized buffer.
func encodeDescriptorBlock(sequence uint32, dirty []dirtyBuffer) []byte {
	b := make([]byte, blockdev.Size)
	putHeader(b, header{magic: magic, blockType: blockTypeDescriptor, sequence: sequence})

	off := 12
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(dirty)))
	off += 4
	for _, db := range dirty {
		binary.LittleEndian.PutUint64(b[off:off+8], db.blockNo)
		off += 8
	}

	checksum := crc32.ChecksumIEEE(b[:off])
	binary.LittleEndian.PutUint32(b[blockdev.Size-4:blockdev.Size], checksum)
	return b
}

// encodeCommitBlock packs the header and a checksum of the descriptor block
// it closes out.
func encodeCommitBlock(sequence uint32, descriptor []byte) []byte {
	b := make([]byte, blockdev.Size)
	putHeader(b, header{magic: magic, blockType: blockTypeCommit, sequence: sequence})

	checksum := crc32.ChecksumIEEE(descriptor)
	binary.LittleEndian.PutUint32(b[12:16], checksum)
	return b
}

func putHeader(b []byte, h header) {
	binary.LittleEndian.PutUint32(b[0:4], h.magic)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.blockType))
	binary.LittleEndian.PutUint32(b[8:12], h.sequence)
}
