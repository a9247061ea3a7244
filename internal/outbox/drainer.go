// Package outbox drains pending sync_queue records to a sink.
package outbox

import (
	"context"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/sink"
)

// Store is the outbox side of the local store.
type Store interface {
	ListPending(ctx context.Context) ([]model.OutboxRecord, error)
	MarkSynced(ctx context.Context, ids []int64) (int, error)
}

// Result counts the records of one drain.
type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Total is the batch size.
func (r Result) Total() int {
	return r.Succeeded + r.Failed
}

// Drainer sends pending records to a sink and marks what it acknowledges.
type Drainer struct {
	store    Store
	sink     sink.Sink
	deviceID string
}

// NewDrainer creates a drainer. deviceID is stamped on every batch.
func NewDrainer(store Store, s sink.Sink, deviceID string) *Drainer {
	return &Drainer{store: store, sink: s, deviceID: deviceID}
}

// Pending builds the batch the next drain would send without sending it.
func (d *Drainer) Pending(ctx context.Context) (model.Batch, error) {
	records, err := d.store.ListPending(ctx)
	if err != nil {
		return model.Batch{}, err
	}
	return model.NewBatch(d.deviceID, records), nil
}

// Drain sends every pending record in one batch, oldest first.
// An empty outbox returns a zero Result without calling the sink.
// On a sink error nothing is marked and the error is returned as is.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	if logging.DrainIDFromContext(ctx) == "" {
		ctx = logging.WithDrainID(ctx, logging.NewDrainID())
	}
	log := logging.LoggerFromContext(ctx)
	start := time.Now()

	batch, err := d.Pending(ctx)
	if err != nil {
		log.Error("failed to read outbox", logging.KeyError, err)
		return Result{}, err
	}
	if len(batch.Items) == 0 {
		log.Debug("outbox empty")
		return Result{}, nil
	}

	ack, err := d.sink.Send(ctx, batch)
	if err != nil {
		log.Warn("sync failed",
			logging.KeySink, d.sink.Name(),
			logging.KeyCount, len(batch.Items),
			logging.KeyError, err,
		)
		return Result{Failed: len(batch.Items)}, err
	}

	ids := acknowledged(batch, ack)
	changed, err := d.store.MarkSynced(ctx, ids)
	if err != nil {
		log.Error("failed to mark records synced", logging.KeyCount, len(ids), logging.KeyError, err)
		return Result{Failed: len(batch.Items)}, err
	}

	res := Result{Succeeded: changed, Failed: len(batch.Items) - changed}
	log.Info("drain complete",
		logging.KeySink, d.sink.Name(),
		logging.KeySucceeded, res.Succeeded,
		logging.KeyFailed, res.Failed,
		logging.KeyDuration, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// acknowledged keeps the acked ids that belong to the batch, once each.
func acknowledged(batch model.Batch, ack model.Ack) []int64 {
	inBatch := make(map[int64]bool, len(batch.Items))
	for _, it := range batch.Items {
		inBatch[it.ID] = true
	}

	ids := make([]int64, 0, len(ack.SyncedIDs))
	for _, id := range ack.SyncedIDs {
		if inBatch[id] {
			ids = append(ids, id)
			delete(inBatch, id)
		}
	}
	return ids
}
