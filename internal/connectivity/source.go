package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/logging"
)

// Source reports whether the network is reachable.
type Source interface {
	// Online returns the current state.
	Online(ctx context.Context) bool
	// Watch calls fn with each new state until ctx is done.
	Watch(ctx context.Context, fn func(online bool)) error
}

// StaticSource never changes.
type StaticSource bool

// Online implements Source.
func (s StaticSource) Online(context.Context) bool { return bool(s) }

// Watch implements Source. It blocks until ctx is done.
func (s StaticSource) Watch(ctx context.Context, _ func(bool)) error {
	<-ctx.Done()
	return nil
}

// SourceFromConfig builds the source selected by cfg.Mode.
func SourceFromConfig(cfg config.ConnectivityConfig, timeout time.Duration) (Source, error) {
	switch cfg.Mode {
	case config.ModeOnline:
		return StaticSource(true), nil
	case config.ModeOffline:
		return StaticSource(false), nil
	case config.ModeFile, "":
		return NewFileSource(cfg.File), nil
	case config.ModeProbe:
		return NewProbeSource(cfg.ProbeURL, cfg.ProbeInterval, timeout), nil
	default:
		return nil, fmt.Errorf("unknown connectivity mode %q", cfg.Mode)
	}
}

// Run starts c with the current state of src and feeds it changes until
// ctx is done. It returns once the controller is started.
func Run(ctx context.Context, c *Controller, src Source) error {
	if err := c.Start(ctx, src.Online(ctx)); err != nil {
		return err
	}
	go func() {
		if err := src.Watch(ctx, c.SetOnline); err != nil {
			logging.Warn("connectivity watch stopped", logging.KeyError, err)
		}
	}()
	return nil
}
