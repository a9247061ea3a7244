// Package sink delivers outbox batches to a remote destination.
//
// A Chain selects the first configured sink: the webhook, then Postgres,
// then AcceptAll. Whatever the selected sink acknowledges is what the
// drainer marks synced.
package sink

import (
	"context"

	"github.com/manav03panchal/driverhelper/internal/model"
)

// Sink sends one batch and reports which outbox ids it accepted.
type Sink interface {
	Name() string
	Send(ctx context.Context, batch model.Batch) (model.Ack, error)
}

// AcceptAll acknowledges every item without sending anything.
// It is the last link of every chain.
type AcceptAll struct{}

// Name implements Sink.
func (AcceptAll) Name() string { return "accept-all" }

// Send implements Sink.
func (AcceptAll) Send(_ context.Context, batch model.Batch) (model.Ack, error) {
	return batch.AcceptAll(), nil
}
