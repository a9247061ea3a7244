//go:build !windows

package daemon

import (
	"os"

	"golang.org/x/sys/unix"
)

// drainSignals ask a running daemon to drain now, e.g. kill -USR1 <pid>.
var drainSignals = []os.Signal{unix.SIGUSR1}
