package sink

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
)

// Chain routes every batch to its first sink. AcceptAll is always last,
// so an empty chain still acknowledges.
type Chain struct {
	sinks []Sink
}

// NewChain builds a chain from sinks in priority order. Nil sinks are skipped.
func NewChain(sinks ...Sink) *Chain {
	c := &Chain{}
	for _, s := range sinks {
		if s != nil {
			c.sinks = append(c.sinks, s)
		}
	}
	c.sinks = append(c.sinks, AcceptAll{})
	return c
}

// FromConfig builds the webhook → postgres → accept-all chain.
// Sinks without configuration are left out.
func FromConfig(ctx context.Context, rc *config.RuntimeConfig) (*Chain, error) {
	cfg := rc.Sink
	var sinks []Sink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, NewWebhook(cfg.WebhookURL, cfg.WebhookToken, cfg.Source, rc.Sync.Timeout))
	}
	if cfg.PostgresDSN != "" {
		pg, err := OpenPostgres(ctx, cfg.PostgresDSN, cfg.PostgresTable)
		if err != nil {
			return nil, errors.NewSystemErrorWithOp("sink.open", "failed to configure postgres sink", err)
		}
		sinks = append(sinks, pg)
	}

	c := NewChain(sinks...)
	logging.DebugLog("sink chain configured",
		logging.KeySink, c.Name(),
		"webhook_url", logging.MaskURL(cfg.WebhookURL),
		"postgres_dsn", logging.MaskURL(cfg.PostgresDSN),
	)
	return c, nil
}

// Active returns the sink that receives batches.
func (c *Chain) Active() Sink {
	return c.sinks[0]
}

// Name implements Sink.
func (c *Chain) Name() string {
	return c.Active().Name()
}

// Send implements Sink. Failures come back as sync transport errors.
func (c *Chain) Send(ctx context.Context, batch model.Batch) (model.Ack, error) {
	s := c.Active()
	ack, err := s.Send(ctx, batch)
	if err != nil {
		return model.Ack{}, errors.NewSyncTransportError(s.Name(), err)
	}
	return ack, nil
}

// Close closes every sink that holds resources.
func (c *Chain) Close() error {
	var errs []error
	for _, s := range c.sinks {
		if closer, ok := s.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return stderrors.Join(errs...)
}
