package simplefs

import (
	"github.com/psankar/simplefs/blockdev"
	"github.com/sirupsen/logrus"
)

// MinImageBlocks is the smallest device Format will accept: superblock,
// inode store, the 2-block journal area, the root directory block and the
// welcome file's own block.
const MinImageBlocks = WelcomeDataBlockNumber + 1

// Format writes a fresh spec.md §6 image to dev: a superblock with
// inodes_count=3, the packed [root, journal, welcome] inode store, a root
// directory block naming the welcome file, and the welcome file's body.
// The 2-block journal area is reserved but not written. totalBlocks is the device's full
// block count, used to size the free_blocks bitmap's upper bound.
//
// Grounded on original_source/mkfs-simplefs.c's step sequence and
// per-step diagnostics, translated into this module's logging idiom.
func Format(dev *blockdev.Device, totalBlocks uint64, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if totalBlocks < MinImageBlocks {
		return ErrInvalidArg
	}

	sb := &superblock{
		version:     Version,
		magic:       Magic,
		blockSize:   BlockSize,
		inodesCount: ReservedInodeCount,
	}
	for i := uint64(FirstFreeBlock); i < totalBlocks; i++ {
		sb.freeBlocks |= 1 << i
	}
	if err := dev.WriteBlock(0, sb.toBytes()); err != nil {
		return ErrIoError
	}
	log.Info("simplefs: super block written successfully")

	store := make([]byte, BlockSize)
	root := &inode{mode: ModeDir, inodeNo: RootInodeNumber, dataBlockNumber: RootDataBlockNumber, payload: 1}
	copy(store[inodeOffset(0):], root.toBytes())
	log.Info("simplefs: root directory inode written successfully")

	journalIno := &inode{mode: ModeRegular, inodeNo: JournalInodeNumber, dataBlockNumber: JournalStartBlock}
	copy(store[inodeOffset(1):], journalIno.toBytes())
	log.Info("simplefs: journal inode written successfully")

	welcome := &inode{mode: ModeRegular, inodeNo: WelcomeInodeNumber, dataBlockNumber: WelcomeDataBlockNumber, payload: uint64(len(WelcomeFileBody))}
	copy(store[inodeOffset(2):], welcome.toBytes())
	log.Info("simplefs: welcome file inode written successfully")

	if err := dev.WriteBlock(inodeStoreBlock, store); err != nil {
		return ErrIoError
	}
	log.Info("simplefs: inode store block written successfully")

	// Journal area (blocks JournalStartBlock..=JournalStartBlock+JournalBlocks-1)
	// is not written here: whatever the device already holds there stays in
	// place until the journal writes its descriptor/commit blocks on first use.

	rootDir := make([]byte, BlockSize)
	rec := &dirRecord{filename: WelcomeFileName, inodeNo: WelcomeInodeNumber}
	copy(rootDir[:dirRecordSize], rec.toBytes())
	if err := dev.WriteBlock(RootDataBlockNumber, rootDir); err != nil {
		return ErrIoError
	}
	log.Info("simplefs: root directory datablock (name+inode_no pair for welcome file) written successfully")

	welcomeBlock := make([]byte, BlockSize)
	copy(welcomeBlock, WelcomeFileBody)
	if err := dev.WriteBlock(WelcomeDataBlockNumber, welcomeBlock); err != nil {
		return ErrIoError
	}
	log.Info("simplefs: welcome file body written successfully")

	for _, b := range []uint64{0, inodeStoreBlock, RootDataBlockNumber, WelcomeDataBlockNumber} {
		if err := dev.SyncBlock(b); err != nil {
			return ErrIoError
		}
	}
	return nil
}
