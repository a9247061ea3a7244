package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/logging"
)

// RecoveryStatus represents the result of a database health check.
type RecoveryStatus struct {
	Healthy    bool      `json:"healthy"`
	Corrupted  bool      `json:"corrupted"`
	LastCheck  time.Time `json:"last_check"`
	ErrorCount int       `json:"error_count"`
	Errors     []string  `json:"errors,omitempty"`
	BackupPath string    `json:"backup_path,omitempty"`
}

// CheckDatabaseIntegrity runs PRAGMA quick_check and reports the result.
func CheckDatabaseIntegrity(ctx context.Context, db *DB) *RecoveryStatus {
	status := &RecoveryStatus{
		LastCheck: time.Now(),
		Healthy:   true,
	}

	if db == nil || db.conn == nil {
		status.Healthy = false
		status.Corrupted = true
		status.Errors = append(status.Errors, "database not initialized")
		status.ErrorCount++
		return status
	}

	rows, err := db.conn.QueryContext(ctx, "PRAGMA quick_check")
	if err != nil {
		status.Healthy = false
		status.Corrupted = IsDatabaseCorrupted(err)
		status.Errors = append(status.Errors, fmt.Sprintf("quick_check failed: %v", err))
		status.ErrorCount++
		return status
	}
	defer rows.Close()

	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			status.Errors = append(status.Errors, err.Error())
			status.ErrorCount++
			continue
		}
		if line != "ok" {
			status.Errors = append(status.Errors, line)
			status.ErrorCount++
		}
	}
	if err := rows.Err(); err != nil {
		status.Errors = append(status.Errors, err.Error())
		status.ErrorCount++
	}

	if status.ErrorCount > 0 {
		status.Healthy = false
		status.Corrupted = true
	}

	return status
}

// CreateBackup writes a consistent copy of the database next to it using
// VACUUM INTO and returns the backup path.
func CreateBackup(ctx context.Context, db *DB) (string, error) {
	if db.Path() == "" {
		return "", fmt.Errorf("in-memory databases cannot be backed up")
	}

	backupDir := filepath.Join(filepath.Dir(db.Path()), "backups")
	if err := os.MkdirAll(backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := db.Now().Format("20060102-150405")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("%s-backup-%s.db", AppName, timestamp))

	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return "", storageErr("backup", "failed to write backup", err)
	}

	logging.Info("database backup created", logging.KeyOperation, "backup", "path", backupPath)
	return backupPath, nil
}

// IsDatabaseCorrupted checks if the given error indicates database corruption.
func IsDatabaseCorrupted(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, errors.ErrCorrupted) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	corruptionPatterns := []string{
		"database disk image is malformed",
		"file is not a database",
		"corrupt",
	}

	for _, pattern := range corruptionPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
