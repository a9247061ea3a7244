package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
)

// DefaultSource is the envelope source when none is configured.
const DefaultSource = "driver-helper"

// Webhook posts batches to an HTTP endpoint.
type Webhook struct {
	url    string
	token  string
	source string
	client *HTTPClient
}

// webhookEnvelope is the request body.
type webhookEnvelope struct {
	Source   string            `json:"source"`
	DeviceID string            `json:"deviceId,omitempty"`
	Items    []model.BatchItem `json:"items"`
}

// NewWebhook creates a webhook sink. An empty token sends no Authorization header.
func NewWebhook(url, token, source string, timeout time.Duration) *Webhook {
	if source == "" {
		source = DefaultSource
	}
	return &Webhook{
		url:    url,
		token:  token,
		source: source,
		client: NewHTTPClient(timeout),
	}
}

// Name implements Sink.
func (w *Webhook) Name() string { return "webhook" }

// Send posts the batch. A 2xx response with a syncedIds list acknowledges
// those ids; any other 2xx body acknowledges the whole batch.
func (w *Webhook) Send(ctx context.Context, batch model.Batch) (model.Ack, error) {
	body, err := json.Marshal(webhookEnvelope{
		Source:   w.source,
		DeviceID: batch.DeviceID,
		Items:    batch.Items,
	})
	if err != nil {
		return model.Ack{}, fmt.Errorf("failed to encode batch: %w", err)
	}

	headers := map[string]string{}
	if w.token != "" {
		headers["Authorization"] = "Bearer " + w.token
	}

	result, err := w.client.Post(ctx, w.url, headers, body)
	if err != nil {
		return model.Ack{}, err
	}

	logging.LoggerFromContext(ctx).Debug("webhook accepted batch",
		logging.KeySink, logging.MaskURL(w.url),
		logging.KeyCount, len(batch.Items),
		logging.KeyStatus, result.StatusCode,
		logging.KeyDuration, result.Duration.Milliseconds(),
	)

	return parseAck(result.Body, batch), nil
}

// parseAck reads {"syncedIds": [...]} when present.
func parseAck(body []byte, batch model.Batch) model.Ack {
	var ack model.Ack
	if len(body) == 0 || json.Unmarshal(body, &ack) != nil || ack.SyncedIDs == nil {
		return batch.AcceptAll()
	}
	return ack
}
