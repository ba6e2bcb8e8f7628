//go:build windows

package wetlib

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// checkDiskSpace verifies the volume holding path has room for
// requiredBytes. A failed query is ignored rather than blocking the
// download.
func checkDiskSpace(path string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return nil
	}
	if int64(free) < requiredBytes {
		return fmt.Errorf("%w: need ~%d bytes, %d available",
			ErrInsufficientDiskSpace, requiredBytes, int64(free))
	}
	return nil
}
