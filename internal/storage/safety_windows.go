//go:build windows

package storage

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var noSpaceErrnos = []error{windows.ERROR_DISK_FULL, windows.ERROR_HANDLE_DISK_FULL}

func statDisk(dir string) (*DiskSpaceInfo, error) {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return nil, fmt.Errorf("disk path %s: %w", dir, err)
	}
	var avail, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(p, &avail, &total, &free); err != nil {
		return nil, fmt.Errorf("GetDiskFreeSpaceEx %s: %w", dir, err)
	}
	return &DiskSpaceInfo{Path: dir, TotalBytes: total, FreeBytes: avail}, nil
}
