package simplefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/psankar/simplefs/blockdev"
)

// MountOptions is the decoded form of the comma-separated key=value mount
// option string described in spec.md §6.
type MountOptions struct {
	// HasJournalDevNum is set when the options request an external journal
	// device, via either journal_dev=<devnum> or a journal_path=<fs-path>
	// that resolves to a block special file.
	HasJournalDevNum bool

	// JournalDevNum is the raw device number from journal_dev=<devnum>.
	// This package has no devnum-to-path resolution (no /sys/dev/block
	// lookup), so JournalDevNum alone is never enough for Open to attach
	// the journal; see JournalDevPath.
	JournalDevNum uint64

	// JournalDevPath is the resolved, openable path to an external journal
	// device: set when journal_path=<fs-path> names a block special file.
	// This is the only form of "external journal" this module can actually
	// open.
	JournalDevPath string
}

// ParseMountOptions decodes a comma-separated key=value option string. A
// journal_path naming a block special file is folded into an equivalent
// journal_dev-style attach, with the path retained so the caller can open
// it directly; journal_path naming anything else means an inode-backed
// journal, per spec.md §6, and nothing further is recorded for it.
func ParseMountOptions(s string) (*MountOptions, error) {
	opts := &MountOptions{}
	if s == "" {
		return opts, nil
	}
	for _, kv := range strings.Split(s, ",") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed mount option %q", ErrInvalidArg, kv)
		}
		key, val := parts[0], parts[1]
		switch key {
		case "journal_dev":
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: journal_dev=%q: %v", ErrInvalidArg, val, err)
			}
			opts.JournalDevNum = n
			opts.HasJournalDevNum = true
		case "journal_path":
			isBlockSpecial, err := blockdev.IsBlockSpecial(val)
			if err != nil {
				return nil, fmt.Errorf("%w: journal_path=%q: %v", ErrJournalInitFailed, val, err)
			}
			if isBlockSpecial {
				opts.JournalDevPath = val
				opts.HasJournalDevNum = true
			}
		default:
			return nil, fmt.Errorf("%w: unknown mount option %q", ErrInvalidArg, key)
		}
	}
	return opts, nil
}

// UsesInodeBackedJournal reports whether the journal should be attached at
// JournalInodeNumber rather than on a distinct block device.
func (o *MountOptions) UsesInodeBackedJournal() bool {
	return !o.HasJournalDevNum
}
