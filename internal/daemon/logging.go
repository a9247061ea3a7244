package daemon

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/logging"
)

// GetLogPath returns the path to the daemon log file.
func GetLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.log")
}

// GetStartupLogPath returns where a background daemon's stdout and stderr go.
func GetStartupLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.startup.log")
}

// NewLogWriter returns a rotating writer for path.
func NewLogWriter(path string, cfg config.DaemonConfig) *lumberjack.Logger {
	maxSize := cfg.LogMaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	}
}

// SetupLogging points the global logger at the rotating daemon log, and
// also at stderr when echo is set. The returned closer flushes the file.
func SetupLogging(path string, cfg config.DaemonConfig, echo bool, debug bool) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	w := NewLogWriter(path, cfg)
	var out io.Writer = w
	if echo {
		out = io.MultiWriter(w, os.Stderr)
	}

	lc := logging.DaemonConfig(out)
	if debug {
		lc.Level = logging.DebugConfig().Level
	}
	logging.Init(lc)
	return w, nil
}
