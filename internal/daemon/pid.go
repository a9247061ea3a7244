// Package daemon runs the background sync process: connectivity
// controller, retention scheduler and the local status server.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/driverhelper/internal/storage"
)

const (
	// AppName is the application name used for runtime directories.
	AppName = "driverhelper"
	// PIDFileName is the PID file name.
	PIDFileName = "driverhelper.pid"
)

var (
	ErrNotRunning     = errors.New("daemon is not running")
	ErrAlreadyRunning = errors.New("daemon is already running")
)

// DefaultPIDPath is the PID file under the XDG state directory.
func DefaultPIDPath() string {
	return filepath.Join(xdg.StateHome, AppName, PIDFileName)
}

// PIDFile records which process owns the sync daemon. A file naming a dead
// process counts as no owner.
type PIDFile struct {
	path string
}

// NewPIDFile returns the PID file at path, or at DefaultPIDPath when path
// is empty.
func NewPIDFile(path string) *PIDFile {
	if path == "" {
		path = DefaultPIDPath()
	}
	return &PIDFile{path: path}
}

func (p *PIDFile) Path() string {
	return p.path
}

// Claim records the current process as owner. It fails with
// ErrAlreadyRunning while any live process holds the file, this one
// included.
func (p *PIDFile) Claim() error {
	if p.Owner() > 0 {
		return ErrAlreadyRunning
	}
	if err := storage.SafeWrite(p.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("claim pid file: %w", err)
	}
	return nil
}

// Owner returns the pid of the live daemon, or 0.
func (p *PIDFile) Owner() int {
	pid, err := p.read()
	if err != nil || !processAlive(pid) {
		return 0
	}
	return pid
}

// Release removes the file if the current process owns it. A file claimed
// by someone else is left alone.
func (p *PIDFile) Release() error {
	pid, err := p.read()
	if err != nil || pid != os.Getpid() {
		return nil
	}
	return p.Clear()
}

// Clear removes the file whoever owns it.
func (p *PIDFile) Clear() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// Signal sends sig to the owner and returns its pid.
func (p *PIDFile) Signal(sig os.Signal) (int, error) {
	pid := p.Owner()
	if pid == 0 {
		return 0, ErrNotRunning
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return pid, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return pid, nil
}

func (p *PIDFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return 0, ErrNotRunning
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pid file %s: %w", p.path, err)
	}
	return pid, nil
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
