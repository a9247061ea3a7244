package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/manav03panchal/driverhelper/internal/connectivity"
	"github.com/manav03panchal/driverhelper/internal/logging"
)

// StatusMessage is one websocket frame.
type StatusMessage struct {
	Type      string              `json:"type"`
	Status    connectivity.Status `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
}

// StatusServer serves /health, /status, /metrics and the /ws stream.
type StatusServer struct {
	addr     string
	listener net.Listener
	server   *http.Server

	ctrl    *connectivity.Controller
	health  *HealthChecker
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

// NewStatusServer creates a server for addr. It does not listen until Start.
func NewStatusServer(addr string, ctrl *connectivity.Controller, health *HealthChecker, metrics *Metrics) *StatusServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &StatusServer{
		addr:    addr,
		ctrl:    ctrl,
		health:  health,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Start begins listening.
func (s *StatusServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logging.Info("status server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("status server error", logging.KeyError, err)
		}
	}()

	return nil
}

// Stop closes websocket clients and shuts the server down.
func (s *StatusServer) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "daemon shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.wg.Wait()
	return nil
}

// Addr returns the listening address.
func (s *StatusServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of websocket clients.
func (s *StatusServer) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health.DetailedCheck(r.Context())
	code := http.StatusOK
	if h.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *StatusServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// handleWebSocket sends the current status, then every change.
func (s *StatusServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		logging.Warn("websocket upgrade failed", logging.KeyError, err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()
	defer s.removeClient(conn)

	updates, unsubscribe := s.ctrl.Subscribe()
	defer unsubscribe()

	// CloseRead handles pings and cancels ctx when the client goes away.
	ctx := conn.CloseRead(s.ctx)

	if err := s.send(ctx, conn, s.ctrl.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := s.send(ctx, conn, st); err != nil {
				return
			}
		}
	}
}

func (s *StatusServer) send(ctx context.Context, conn *websocket.Conn, st connectivity.Status) error {
	data, err := json.Marshal(StatusMessage{Type: "status", Status: st, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (s *StatusServer) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// FetchStatus asks a running daemon for its controller status.
func FetchStatus(ctx context.Context, addr string) (*connectivity.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status server returned HTTP %d", resp.StatusCode)
	}
	var st connectivity.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
