// Package gateway is a small server for the /api/sync route. It
// deduplicates batches against a Badger ledger and forwards new items to a
// downstream sink chain.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/sink"
)

const maxBodyBytes = 8 << 20

// Server handles sync batches.
type Server struct {
	ledger     *Ledger
	downstream sink.Sink
	now        func() time.Time

	// mu serializes batches so two deliveries of the same item cannot
	// both miss the ledger.
	mu sync.Mutex

	addrMu sync.Mutex
	addr   string
}

// NewServer creates a gateway forwarding to downstream.
func NewServer(ledger *Ledger, downstream sink.Sink) *Server {
	return &Server{
		ledger:     ledger,
		downstream: downstream,
		now:        time.Now,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("gateway listening", "addr", ln.Addr().String(), logging.KeySink, s.downstream.Name())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listening address once ListenAndServe has started.
func (s *Server) Addr() string {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var batch model.Batch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	ack, err := s.Sync(r.Context(), batch)
	if err != nil {
		logging.WarnContext(r.Context(), "gateway sync failed",
			logging.KeyCount, len(batch.Items),
			logging.KeyError, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// Sync acknowledges items already in the ledger and forwards the rest.
// The returned ids keep the batch order.
func (s *Server) Sync(ctx context.Context, batch model.Batch) (model.Ack, error) {
	if len(batch.Items) == 0 {
		return model.Ack{SyncedIDs: []int64{}}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, len(batch.Items))
	for i, it := range batch.Items {
		keys[i] = model.IdempotencyKey(batch.DeviceID, it.ID)
	}
	seen, err := s.ledger.Seen(keys)
	if err != nil {
		return model.Ack{}, fmt.Errorf("ledger read: %w", err)
	}

	fresh := model.Batch{DeviceID: batch.DeviceID}
	for i, it := range batch.Items {
		if !seen[keys[i]] {
			fresh.Items = append(fresh.Items, it)
		}
	}

	acked := make(map[int64]bool)
	if len(fresh.Items) > 0 {
		ack, err := s.downstream.Send(ctx, fresh)
		if err != nil {
			return model.Ack{}, err
		}
		inFresh := make(map[int64]bool, len(fresh.Items))
		for _, it := range fresh.Items {
			inFresh[it.ID] = true
		}
		var newKeys []string
		for _, id := range ack.SyncedIDs {
			if inFresh[id] && !acked[id] {
				acked[id] = true
				newKeys = append(newKeys, model.IdempotencyKey(batch.DeviceID, id))
			}
		}
		if err := s.ledger.Record(newKeys, s.now()); err != nil {
			return model.Ack{}, fmt.Errorf("ledger write: %w", err)
		}
	}

	out := model.Ack{SyncedIDs: []int64{}}
	for i, it := range batch.Items {
		if seen[keys[i]] || acked[it.ID] {
			out.SyncedIDs = append(out.SyncedIDs, it.ID)
		}
	}

	logging.InfoContext(ctx, "gateway batch handled",
		logging.KeyCount, len(batch.Items),
		"duplicates", len(batch.Items)-len(fresh.Items),
		logging.KeySucceeded, len(out.SyncedIDs))
	return out, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
