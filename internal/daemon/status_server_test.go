package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/outbox"
)

func newTestStatusServer(t *testing.T) (*StatusServer, *connectivity.Controller, *httptest.Server) {
	t.Helper()

	ctrl := connectivity.New(fixedDrainer{res: outbox.Result{Succeeded: 1}}, connectivity.WithInterval(time.Hour))
	t.Cleanup(ctrl.Stop)

	s := NewStatusServer("127.0.0.1:0", ctrl, NewHealthChecker("test"), NewMetrics())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = s.Stop() })
	return s, ctrl, ts
}

func TestStatusServerHealth(t *testing.T) {
	s, _, ts := newTestStatusServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var h DetailedHealth
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "healthy", h.Status)

	s.health.AddCheck("database", func(context.Context) error { return errors.New("disk I/O error") })
	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestStatusServerStatusAndMetrics(t *testing.T) {
	_, ctrl, ts := newTestStatusServer(t)
	require.NoError(t, ctrl.Start(context.Background(), false))

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st connectivity.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, connectivity.StateOffline, st.State)
	assert.False(t, st.Online)

	resp2, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var m MetricsSnapshot
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&m))
	assert.Equal(t, int64(0), m.DrainsTotal)
}

func TestStatusServerWebSocket(t *testing.T) {
	_, ctrl, ts := newTestStatusServer(t)
	require.NoError(t, ctrl.Start(context.Background(), false))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() StatusMessage {
		t.Helper()
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg StatusMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	first := read()
	assert.Equal(t, "status", first.Type)
	assert.Equal(t, connectivity.StateOffline, first.Status.State)

	ctrl.SetOnline(true)

	// Going online publishes idle, then syncing, then idle again.
	var states []connectivity.State
	for len(states) == 0 || states[len(states)-1] != connectivity.StateIdle || len(states) < 2 {
		states = append(states, read().Status.State)
	}
	assert.Contains(t, states, connectivity.StateSyncing)
}

func TestStatusServerStartStop(t *testing.T) {
	ctrl := connectivity.New(fixedDrainer{}, connectivity.WithInterval(time.Hour))
	defer ctrl.Stop()

	s := NewStatusServer("127.0.0.1:0", ctrl, NewHealthChecker("test"), NewMetrics())
	require.NoError(t, s.Start())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	st, err := FetchStatus(context.Background(), s.Addr())
	require.NoError(t, err)
	assert.Equal(t, connectivity.StateUninitialized, st.State)

	require.NoError(t, s.Stop())
	_, err = FetchStatus(context.Background(), s.Addr())
	assert.Error(t, err)
}
