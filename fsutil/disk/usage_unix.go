//go:build freebsd || linux || darwin

package disk

import (
	"golang.org/x/sys/unix"
)

func usage(path string) (*UsageStats, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, err
	}
	blockSize := uint64(stat.Bsize)

	total := uint64(stat.Blocks)
	availToRoot := uint64(stat.Bfree)
	availToUser := uint64(stat.Bavail)
	used := total - availToRoot

	return &UsageStats{
		Path:    path,
		Percent: percentUsed(used, used+availToUser),
		Free:    availToUser * blockSize,
		Total:   total * blockSize,
		Used:    used * blockSize,
	}, nil
}
