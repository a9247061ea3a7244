//go:build windows

package daemon

import "os"

// Windows has no user signals. The daemon drains on its interval only.
var drainSignals []os.Signal
