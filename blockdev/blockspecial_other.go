//go:build !unix

package blockdev

// IsBlockSpecial always reports false on platforms without block special
// files; journal_path mount options there are always treated as
// inode-backed.
func IsBlockSpecial(path string) (bool, error) {
	return false, nil
}
