package daemon

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

// stopSignals end a foreground daemon.
var stopSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// SignalHandler routes process signals for Run: drain signals nudge the
// controller, stop signals end the run.
type SignalHandler struct {
	signals chan os.Signal
}

// NewSignalHandler creates a handler and registers it.
func NewSignalHandler() *SignalHandler {
	h := &SignalHandler{signals: make(chan os.Signal, 4)}
	signal.Notify(h.signals, slices.Concat(stopSignals, drainSignals)...)
	return h
}

// Wait calls onDrain for each drain signal and returns the first stop
// signal. It returns nil once ctx is done.
func (h *SignalHandler) Wait(ctx context.Context, onDrain func()) os.Signal {
	for {
		select {
		case sig := <-h.signals:
			if slices.Contains(drainSignals, sig) {
				if onDrain != nil {
					onDrain()
				}
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		}
	}
}

// Cleanup unregisters the handler.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}
