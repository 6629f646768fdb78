// Package disk reports file system usage.
package disk

import "errors"

var ErrUnsupported = errors.New("disk usage not supported on this platform")

// UsageStats is the usage of the file system holding Path.
type UsageStats struct {
	// Path is the filesystem path that disk usage is associated with.
	Path string
	// Percent is the used space as a percentage of the space the user can
	// use, which excludes blocks reserved for root.
	Percent float64
	// Free is the remaining free space usable by the user.
	Free uint64
	// Total is the size of the file system.
	Total uint64
	// Used is the total space being used.
	Used uint64
}

// Usage returns the usage of the file system that holds path.
func Usage(path string) (*UsageStats, error) {
	return usage(path)
}

func percentUsed(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(used) / float64(total)
}
