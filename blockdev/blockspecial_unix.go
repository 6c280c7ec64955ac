//go:build unix

package blockdev

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// IsBlockSpecial reports whether path names a block special device file,
// used to resolve the spec.md §6 journal_path mount option: a block special
// target is treated as journal_dev, anything else as an inode-backed journal.
func IsBlockSpecial(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}
