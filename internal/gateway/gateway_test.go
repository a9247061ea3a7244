package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/sink"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

type stubSink struct {
	batches []model.Batch
	ack     func(model.Batch) model.Ack
	err     error
}

func (s *stubSink) Name() string { return "stub" }

func (s *stubSink) Send(_ context.Context, b model.Batch) (model.Ack, error) {
	s.batches = append(s.batches, b)
	if s.err != nil {
		return model.Ack{}, s.err
	}
	if s.ack != nil {
		return s.ack(b), nil
	}
	return b.AcceptAll(), nil
}

// serverSink feeds batches straight into a gateway server.
type serverSink struct{ s *Server }

func (g serverSink) Name() string { return "gateway" }

func (g serverSink) Send(ctx context.Context, b model.Batch) (model.Ack, error) {
	return g.s.Sync(ctx, b)
}

func setupLedger(t *testing.T, ttl time.Duration) *Ledger {
	t.Helper()
	l, err := OpenLedger(LedgerOptions{InMemory: true, TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func batchOf(device string, ids ...int64) model.Batch {
	b := model.Batch{DeviceID: device}
	for _, id := range ids {
		b.Items = append(b.Items, model.BatchItem{
			ID:        id,
			Entity:    model.EntityNotes,
			Operation: model.OpInsert,
			Payload:   json.RawMessage(`{"content":"x"}`),
		})
	}
	return b
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLedger(t *testing.T) {
	l := setupLedger(t, 0)

	seen, err := l.Seen([]string{"d:1", "d:2"})
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, l.Record([]string{"d:1"}, time.Now()))
	require.NoError(t, l.Record(nil, time.Now()))

	seen, err = l.Seen([]string{"d:1", "d:2"})
	require.NoError(t, err)
	assert.True(t, seen["d:1"])
	assert.False(t, seen["d:2"])

	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLedgerOnDisk(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenLedger(LedgerOptions{Path: dir, TTL: time.Hour})
	require.NoError(t, err)
	require.NoError(t, l.Record([]string{"d:7"}, time.Now()))
	require.NoError(t, l.Close())

	l, err = OpenLedger(LedgerOptions{Path: dir})
	require.NoError(t, err)
	defer l.Close()
	seen, err := l.Seen([]string{"d:7"})
	require.NoError(t, err)
	assert.True(t, seen["d:7"])
}

func TestSyncEmptyBatch(t *testing.T) {
	down := &stubSink{}
	s := NewServer(setupLedger(t, 0), down)

	rec := post(t, s.Handler(), `{"items":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"syncedIds":[]}`, rec.Body.String())
	assert.Empty(t, down.batches)

	rec = post(t, s.Handler(), `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"syncedIds":[]}`, rec.Body.String())
}

func TestSyncForwardsAndDeduplicates(t *testing.T) {
	down := &stubSink{}
	s := NewServer(setupLedger(t, 0), down)

	body, err := json.Marshal(batchOf("phone", 1, 2))
	require.NoError(t, err)
	rec := post(t, s.Handler(), string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"syncedIds":[1,2]}`, rec.Body.String())
	require.Len(t, down.batches, 1)
	assert.Equal(t, "phone", down.batches[0].DeviceID)

	// A retry with one new item forwards only the new one.
	ack, err := s.Sync(context.Background(), batchOf("phone", 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ack.SyncedIDs)
	require.Len(t, down.batches, 2)
	assert.Equal(t, []int64{3}, down.batches[1].IDs())

	// The same ids from another device are different records.
	_, err = s.Sync(context.Background(), batchOf("tablet", 1))
	require.NoError(t, err)
	require.Len(t, down.batches, 3)
}

func TestSyncPartialDownstreamAck(t *testing.T) {
	down := &stubSink{ack: func(model.Batch) model.Ack { return model.Ack{SyncedIDs: []int64{2, 99}} }}
	s := NewServer(setupLedger(t, 0), down)

	ack, err := s.Sync(context.Background(), batchOf("phone", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ack.SyncedIDs)

	// Item 1 was not acked, so it is forwarded again.
	down.ack = nil
	ack, err = s.Sync(context.Background(), batchOf("phone", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ack.SyncedIDs)
	assert.Equal(t, []int64{1}, down.batches[1].IDs())
}

func TestSyncDownstreamError(t *testing.T) {
	down := &stubSink{err: errors.New("webhook unreachable")}
	s := NewServer(setupLedger(t, 0), sink.NewChain(down))

	body, err := json.Marshal(batchOf("phone", 1))
	require.NoError(t, err)
	rec := post(t, s.Handler(), string(body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "webhook unreachable")

	// Nothing was recorded, so the retry is forwarded.
	down.err = nil
	ack, err := s.Sync(context.Background(), batchOf("phone", 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ack.SyncedIDs)
	assert.Len(t, down.batches, 2)
}

func TestSyncBadBody(t *testing.T) {
	s := NewServer(setupLedger(t, 0), sink.AcceptAll{})

	rec := post(t, s.Handler(), `{"items": "nope"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestSyncMethodNotAllowed(t *testing.T) {
	s := NewServer(setupLedger(t, 0), sink.AcceptAll{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	s := NewServer(setupLedger(t, 0), sink.AcceptAll{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListenAndServe(t *testing.T) {
	s := NewServer(setupLedger(t, 0), sink.AcceptAll{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	body, err := json.Marshal(batchOf("phone", 5))
	require.NoError(t, err)
	resp, err := http.Post("http://"+s.Addr()+"/api/sync", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var ack model.Ack
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, []int64{5}, ack.SyncedIDs)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not stop")
	}
}

func TestWebhookSinkAgainstGateway(t *testing.T) {
	s := NewServer(setupLedger(t, 0), sink.AcceptAll{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wh := sink.NewWebhook(ts.URL+"/api/sync", "", "", time.Second)
	ack, err := wh.Send(context.Background(), batchOf("phone", 4, 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, ack.SyncedIDs)
}

func TestSyncAfterLocalReset(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	down := &stubSink{}
	drainer := outbox.NewDrainer(storage.NewOutboxRepo(db), serverSink{NewServer(setupLedger(t, 0), down)}, "phone")
	notes := storage.NewNoteRepo(db)

	_, err = notes.Create(ctx, model.NoteInput{Content: "before reset"})
	require.NoError(t, err)
	res, err := drainer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)

	require.NoError(t, db.Reset(ctx))

	_, err = notes.Create(ctx, model.NoteInput{Content: "after reset"})
	require.NoError(t, err)
	res, err = drainer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, outbox.Result{Succeeded: 1}, res)

	// The post-reset record reaches downstream instead of being deduplicated.
	require.Len(t, down.batches, 2)
	require.Len(t, down.batches[1].Items, 1)
	assert.JSONEq(t, `"after reset"`, string(mustField(t, down.batches[1].Items[0].Payload, "content")))
}

func mustField(t *testing.T, payload json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &m))
	return m[key]
}
