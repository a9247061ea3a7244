package sink

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
)

func testBatch() model.Batch {
	return model.Batch{
		DeviceID: "device-1",
		Items: []model.BatchItem{
			{ID: 1, Entity: model.EntityNotes, Operation: model.OpInsert, Payload: json.RawMessage(`{"id":1,"content":"Pick up toll receipt"}`)},
			{ID: 2, Entity: model.EntityTransactions, Operation: model.OpInsert, Payload: json.RawMessage(`{"type":"income","amount":500}`)},
		},
	}
}

// =============================================================================
// AcceptAll
// =============================================================================

func TestAcceptAll(t *testing.T) {
	ack, err := AcceptAll{}.Send(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ack.SyncedIDs)
	assert.Equal(t, "accept-all", AcceptAll{}.Name())
}

// =============================================================================
// Webhook
// =============================================================================

func TestWebhook_Envelope(t *testing.T) {
	var (
		gotAuth string
		gotBody webhookEnvelope
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "secret", "", time.Second)
	ack, err := wh.Send(context.Background(), testBatch())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, DefaultSource, gotBody.Source)
	assert.Equal(t, "device-1", gotBody.DeviceID)
	require.Len(t, gotBody.Items, 2)
	assert.Equal(t, model.EntityNotes, gotBody.Items[0].Entity)
	assert.JSONEq(t, `{"id":1,"content":"Pick up toll receipt"}`, string(gotBody.Items[0].Payload))

	// Empty body acknowledges the whole batch.
	assert.Equal(t, []int64{1, 2}, ack.SyncedIDs)
}

func TestWebhook_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	_, err := NewWebhook(srv.URL, "", "custom", time.Second).Send(context.Background(), testBatch())
	require.NoError(t, err)
}

func TestWebhook_Responses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    []int64
		wantErr string
	}{
		{"partial ack", http.StatusOK, `{"syncedIds":[2]}`, []int64{2}, ""},
		{"empty ack list", http.StatusOK, `{"syncedIds":[]}`, []int64{}, ""},
		{"unrelated json", http.StatusOK, `{"ok":true}`, []int64{1, 2}, ""},
		{"not json", http.StatusAccepted, `queued`, []int64{1, 2}, ""},
		{"server error", http.StatusBadGateway, `upstream down`, nil, "server error (HTTP 502): upstream down"},
		{"client error", http.StatusUnauthorized, `bad token`, nil, "client error (HTTP 401): bad token"},
		{"rate limited", http.StatusTooManyRequests, ``, nil, "rate limited (HTTP 429)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ack, err := NewWebhook(srv.URL, "", "", time.Second).Send(context.Background(), testBatch())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				var se *StatusError
				assert.True(t, stderrors.As(err, &se))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ack.SyncedIDs)
		})
	}
}

func TestWebhook_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewWebhook(url, "", "", time.Second).Send(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestWebhook_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewWebhook(srv.URL, "", "", 50*time.Millisecond).Send(context.Background(), testBatch())
	require.Error(t, err)
}

func TestStatusError_TruncatesBody(t *testing.T) {
	long := make([]byte, maxErrorBody*2)
	for i := range long {
		long[i] = 'x'
	}
	err := &StatusError{StatusCode: 500, Body: truncate(string(long))}
	assert.Len(t, err.Body, maxErrorBody+3)
}

// =============================================================================
// Postgres
// =============================================================================

func TestPostgres_Send(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pg, err := NewPostgres(mock, "")
	require.NoError(t, err)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pg.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO "driver_helper_sync" \(entity,operation,payload,queue_id,created_at\)`).
		WithArgs(
			"notes", "insert", `{"id":1,"content":"Pick up toll receipt"}`, int64(1), fixed,
			"earnings", "insert", `{"type":"income","amount":500}`, int64(2), fixed,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	ack, err := pg.Send(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ack.SyncedIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SchemaQualifiedTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pg, err := NewPostgres(mock, "sync.driver_events")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "sync"."driver_events"`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	batch := testBatch()
	batch.Items = batch.Items[:1]
	_, err = pg.Send(context.Background(), batch)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pg, err := NewPostgres(mock, "driver_helper_sync")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO`).WillReturnError(stderrors.New("connection refused"))

	_, err = pg.Send(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EmptyBatchSkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pg, err := NewPostgres(mock, "")
	require.NoError(t, err)

	ack, err := pg.Send(context.Background(), model.Batch{})
	require.NoError(t, err)
	assert.Empty(t, ack.SyncedIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RejectsBadTableName(t *testing.T) {
	for _, name := range []string{"drop table;", "a.b.c", "1abc", `x"y`} {
		_, err := NewPostgres(nil, name)
		assert.Error(t, err, name)
	}
}

// =============================================================================
// Chain
// =============================================================================

type stubSink struct {
	name  string
	ack   model.Ack
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Send(_ context.Context, _ model.Batch) (model.Ack, error) {
	s.calls++
	return s.ack, s.err
}

func TestChain_FirstSinkWins(t *testing.T) {
	primary := &stubSink{name: "primary", ack: model.Ack{SyncedIDs: []int64{1}}}
	secondary := &stubSink{name: "secondary"}

	c := NewChain(nil, primary, secondary)
	assert.Equal(t, "primary", c.Name())

	ack, err := c.Send(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ack.SyncedIDs)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestChain_EmptyAcceptsAll(t *testing.T) {
	c := NewChain()
	assert.Equal(t, "accept-all", c.Name())

	ack, err := c.Send(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ack.SyncedIDs)
}

func TestChain_ErrorIsSyncTransport(t *testing.T) {
	failing := &stubSink{name: "webhook", err: stderrors.New("HTTP 503")}
	secondary := &stubSink{name: "secondary"}

	_, err := NewChain(failing, secondary).Send(context.Background(), testBatch())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSyncTransport))
	assert.True(t, errors.IsRecoverableError(err))
	assert.Contains(t, err.Error(), "webhook")
	assert.Equal(t, 0, secondary.calls, "a failing sink does not fall through")
}

func TestFromConfig(t *testing.T) {
	rc := config.DefaultRuntimeConfig()

	c, err := FromConfig(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, "accept-all", c.Name())

	rc.Sink.WebhookURL = "https://example.com/hook"
	c, err = FromConfig(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, "webhook", c.Name())
	assert.NoError(t, c.Close())

	rc.Sink.WebhookURL = ""
	rc.Sink.PostgresDSN = "postgres://user:pw@localhost:5432/sync"
	c, err = FromConfig(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Name())
	assert.NoError(t, c.Close())
}
