//go:build !darwin && !freebsd && !linux && !windows

package wetlib

// checkDiskSpace is a stub for platforms without a free-space query;
// downloads proceed unchecked.
func checkDiskSpace(path string, requiredBytes int64) error {
	return nil
}
