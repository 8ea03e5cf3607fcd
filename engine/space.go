//go:build unix

package engine

import "golang.org/x/sys/unix"

// FreeSpace reports free and total bytes of the filesystem holding the
// device root.
func (e *Engine) FreeSpace() (free, total uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(e.root, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Bavail * bsize, st.Blocks * bsize, nil
}
