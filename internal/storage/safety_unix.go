//go:build !windows

package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// noSpaceErrnos are the errnos a full filesystem reports.
var noSpaceErrnos = []error{unix.ENOSPC, unix.EDQUOT}

func statDisk(dir string) (*DiskSpaceInfo, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", dir, err)
	}
	bsize := uint64(st.Bsize)
	return &DiskSpaceInfo{
		Path:       dir,
		TotalBytes: uint64(st.Blocks) * bsize,
		FreeBytes:  uint64(st.Bavail) * bsize,
	}, nil
}
