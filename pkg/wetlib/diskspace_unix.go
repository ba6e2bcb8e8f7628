//go:build darwin || freebsd || linux

package wetlib

import (
	"fmt"
	"syscall"
)

// checkDiskSpace verifies the filesystem holding path has room for
// requiredBytes. A failed statfs is ignored: better to attempt the
// download and fail late than to block on an unreadable mount.
func checkDiskSpace(path string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil
	}
	// Bavail is what an unprivileged writer can actually use.
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < requiredBytes {
		return fmt.Errorf("%w: need ~%d bytes, %d available",
			ErrInsufficientDiskSpace, requiredBytes, available)
	}
	return nil
}
