// Package connectivity owns the sync lifecycle: it tracks online state,
// drains the outbox on a timer and on reconnect, and never runs two
// drains at once.
package connectivity

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/outbox"
)

// State is the controller lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateOffline       State = "ready-offline"
	StateIdle          State = "ready-online-idle"
	StateSyncing       State = "ready-online-syncing"
)

// DefaultInterval is the time between scheduled drains.
const DefaultInterval = 60 * time.Second

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = stderrors.New("connectivity controller already started")

// Drainer runs one outbox drain.
type Drainer interface {
	Drain(ctx context.Context) (outbox.Result, error)
}

// Status is a point-in-time view of the controller.
type Status struct {
	State      State         `json:"state"`
	Online     bool          `json:"online"`
	Syncing    bool          `json:"syncing"`
	LastSynced time.Time     `json:"last_synced,omitzero"`
	LastError  string        `json:"last_error,omitempty"`
	LastResult outbox.Result `json:"last_result"`
}

// Controller schedules drains. The zero value is not usable; use New.
type Controller struct {
	drainer  Drainer
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	state      State
	syncing    bool
	stopped    bool
	lastSynced time.Time
	lastErr    error
	lastResult outbox.Result
	subs       map[chan Status]struct{}

	stop     chan struct{}
	loopWG   sync.WaitGroup
	inflight sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the drain interval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides time.Now for LastSynced.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller in the uninitialized state.
func New(d Drainer, opts ...Option) *Controller {
	c := &Controller{
		drainer:  d,
		interval: DefaultInterval,
		now:      time.Now,
		state:    StateUninitialized,
		subs:     make(map[chan Status]struct{}),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start leaves the uninitialized state and starts the interval timer.
// Starting online requests an immediate drain. The timer stops when ctx
// is done or Stop is called.
func (c *Controller) Start(ctx context.Context, online bool) error {
	c.mu.Lock()
	if c.state != StateUninitialized || c.stopped {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if online {
		c.state = StateIdle
	} else {
		c.state = StateOffline
	}
	c.publishLocked()
	c.mu.Unlock()

	logging.Info("sync controller started", logging.KeyState, string(c.State()), "interval", c.interval.String())

	c.loopWG.Add(1)
	go c.loop(ctx)

	if online {
		c.RequestDrain()
	}
	return nil
}

func (c *Controller) loop(ctx context.Context) {
	defer c.loopWG.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.RequestDrain()
		}
	}
}

// SetOnline applies a connectivity change. The offline to online edge
// requests a drain. Going offline does not cancel a running drain.
func (c *Controller) SetOnline(online bool) {
	c.mu.Lock()
	if c.state == StateUninitialized || c.stopped {
		c.mu.Unlock()
		return
	}

	wasOnline := c.state != StateOffline
	if online == wasOnline {
		c.mu.Unlock()
		return
	}

	switch {
	case !online:
		c.state = StateOffline
	case c.syncing:
		c.state = StateSyncing
	default:
		c.state = StateIdle
	}
	c.publishLocked()
	c.mu.Unlock()

	logging.Info("connectivity changed", logging.KeyState, string(c.State()))

	if online {
		c.RequestDrain()
	}
}

// RequestDrain starts a drain if the controller is online and idle.
// A request made while a drain is running is dropped. It reports whether
// a drain was started.
func (c *Controller) RequestDrain() bool {
	c.mu.Lock()
	if c.stopped || c.state != StateIdle || c.syncing {
		c.mu.Unlock()
		return false
	}
	c.state = StateSyncing
	c.syncing = true
	c.inflight.Add(1)
	c.publishLocked()
	c.mu.Unlock()

	go c.runDrain()
	return true
}

func (c *Controller) runDrain() {
	defer c.inflight.Done()

	ctx := logging.WithDrainID(context.Background(), logging.NewDrainID())
	res, err := c.safeDrain(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.syncing = false
	c.lastResult = res
	c.lastErr = err
	if err == nil {
		c.lastSynced = c.now()
	}
	if c.state == StateSyncing {
		c.state = StateIdle
	}
	c.publishLocked()
}

func (c *Controller) safeDrain(ctx context.Context) (res outbox.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("drain panicked: %v", r)
			logging.ErrorContext(ctx, "drain panicked", logging.KeyError, err)
		}
	}()
	return c.drainer.Drain(ctx)
}

// Wait blocks until no drain is running.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Stop cancels the timer and waits for the loop to exit. A running drain
// finishes on its own. Stop is safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	close(c.stop)
	c.mu.Unlock()

	c.loopWG.Wait()
	logging.DebugLog("sync controller stopped")
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastSynced returns when the last successful drain finished.
func (c *Controller) LastSynced() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSynced
}

// Snapshot returns the current status.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Status {
	s := Status{
		State:      c.state,
		Online:     c.state == StateIdle || c.state == StateSyncing,
		Syncing:    c.syncing,
		LastSynced: c.lastSynced,
		LastResult: c.lastResult,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Subscribe returns a channel of status changes and a function that
// unsubscribes. Slow receivers miss intermediate updates.
func (c *Controller) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publishLocked() {
	s := c.snapshotLocked()
	for ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
