package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the kind of change an outbox record describes.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// OutboxStatus is the sync state of an outbox record.
// It only ever moves from pending to synced.
type OutboxStatus string

const (
	StatusPending OutboxStatus = "pending"
	StatusSynced  OutboxStatus = "synced"
)

// OutboxRecord is one row of sync_queue.
type OutboxRecord struct {
	ID        int64           `json:"id"`
	Entity    Entity          `json:"entity"`
	EntityID  *int64          `json:"entity_id,omitempty"`
	Operation Operation       `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
	Status    OutboxStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsPending returns true until the record has been acknowledged.
func (r *OutboxRecord) IsPending() bool {
	return r.Status == StatusPending
}

// OutboxStats counts outbox rows by status.
type OutboxStats struct {
	Pending       int       `json:"pending"`
	Synced        int       `json:"synced"`
	OldestPending time.Time `json:"oldest_pending,omitempty"`
}

// BatchItem is the wire form of one outbox record.
type BatchItem struct {
	ID        int64           `json:"id"`
	Entity    Entity          `json:"entity"`
	Operation Operation       `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
}

// Batch is the request body sent to a sync sink.
type Batch struct {
	Items    []BatchItem `json:"items"`
	DeviceID string      `json:"deviceId,omitempty"`
}

// Ack is the sink response listing acknowledged outbox ids.
type Ack struct {
	SyncedIDs []int64 `json:"syncedIds"`
}

// NewBatch builds a batch from pending records, preserving their order.
func NewBatch(deviceID string, records []OutboxRecord) Batch {
	items := make([]BatchItem, len(records))
	for i, r := range records {
		items[i] = BatchItem{
			ID:        r.ID,
			Entity:    r.Entity,
			Operation: r.Operation,
			Payload:   r.Payload,
		}
	}
	return Batch{Items: items, DeviceID: deviceID}
}

// IDs returns the outbox ids in the batch.
func (b Batch) IDs() []int64 {
	ids := make([]int64, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.ID
	}
	return ids
}

// AcceptAll acknowledges every item in the batch.
func (b Batch) AcceptAll() Ack {
	return Ack{SyncedIDs: b.IDs()}
}

// IdempotencyKey identifies an outbox record across devices.
func IdempotencyKey(deviceID string, id int64) string {
	if deviceID == "" {
		deviceID = "anonymous"
	}
	return fmt.Sprintf("%s:%d", deviceID, id)
}
