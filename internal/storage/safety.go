package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncruces/go-sqlite3"

	"github.com/manav03panchal/driverhelper/internal/errors"
)

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
}

// FreePercent returns the percentage of free space.
func (d *DiskSpaceInfo) FreePercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return float64(d.FreeBytes) / float64(d.TotalBytes) * 100
}

// GetDiskSpace reports space on the filesystem holding path. A path that
// does not exist yet is measured at its nearest existing parent.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	info, err := statDisk(dir)
	if err != nil {
		return nil, err
	}
	info.UsedBytes = info.TotalBytes - info.FreeBytes
	return info, nil
}

// isDiskFullError matches SQLITE_FULL and the platform out-of-space errnos,
// however deeply wrapped.
func isDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqlite3.FULL) {
		return true
	}
	for _, target := range noSpaceErrnos {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CheckDiskSpace returns ErrDiskFull wrapped in a SystemError when the
// filesystem holding path has less than min bytes free.
func CheckDiskSpace(path string, min uint64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		// If we can't check disk space, let the write decide
		return nil
	}

	if info.FreeBytes < min {
		return errors.NewSystemErrorWithOp("disk_check",
			fmt.Sprintf("insufficient disk space: %d MB free, need at least %d MB",
				info.FreeBytes/(1024*1024),
				min/(1024*1024)),
			errors.ErrDiskFull,
		)
	}

	return nil
}

// CheckDiskSpaceWarning returns a warning message if free space is below
// threshold, or "" if it is adequate.
func CheckDiskSpaceWarning(path string, threshold uint64) string {
	info, err := GetDiskSpace(path)
	if err != nil {
		return ""
	}

	if info.FreeBytes < threshold {
		return fmt.Sprintf("Warning: Low disk space (%d MB free)", info.FreeBytes/(1024*1024))
	}

	return ""
}

// SafeWrite writes data atomically: temp file, fsync, rename.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewSystemErrorWithOp("mkdir", "failed to create directory", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".driverhelper-*.tmp")
	if err != nil {
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("create temp file", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("write", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("sync", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to sync data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
