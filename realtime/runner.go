package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/comalice/hfsm"
)

var (
	// ErrQueueFull is returned by Request when the batch for the next tick is full.
	ErrQueueFull = errors.New("request queue full")
	// ErrRunning is returned by Start and Step while the tick loop runs.
	ErrRunning = errors.New("runner already running")
	// ErrNotRunning is returned by Stop when the tick loop is not running.
	ErrNotRunning = errors.New("runner not running")
)

// TickObserver is notified after every processed tick with the wall time the
// tick took. observe.Metrics implements it.
type TickObserver interface {
	ObserveTick(d time.Duration)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger. Recovered panics are logged at error level.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTickObserver registers o to receive tick timings.
func WithTickObserver(o TickObserver) Option {
	return func(r *Runner) {
		r.tickObserver = o
	}
}

// Runner ticks a machine at a fixed rate on its own goroutine.
type Runner struct {
	machine      *hfsm.Machine
	cfg          Config
	id           uuid.UUID
	logger       zerolog.Logger
	tickObserver TickObserver

	// Request batching, double buffered so a tick never allocates.
	mu       sync.Mutex
	requests []string
	spare    []string
	active   string

	tickNum atomic.Uint64

	// Control
	ctrl    sync.Mutex
	running bool
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewRunner creates a runner for m. Zero Config fields take their defaults.
// The runner takes ownership of m: once started, the machine must only be
// touched through the runner.
func NewRunner(m *hfsm.Machine, cfg Config, opts ...Option) *Runner {
	cfg = cfg.withDefaults()
	r := &Runner{
		machine:  m,
		cfg:      cfg,
		id:       uuid.New(),
		logger:   zerolog.Nop(),
		requests: make([]string, 0, cfg.MaxRequestsPerTick),
		spare:    make([]string, 0, cfg.MaxRequestsPerTick),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("runner", r.id.String()).Logger()
	if s := m.ActiveState(); s != nil {
		r.active = s.Name()
	}
	m.OnStateChanged(func(c hfsm.StateChange) {
		name := ""
		if c.To != nil {
			name = c.To.Name()
		}
		r.mu.Lock()
		r.active = name
		r.mu.Unlock()
	})
	return r
}

// ID returns the runner's unique identifier.
func (r *Runner) ID() uuid.UUID { return r.id }

// Machine returns the driven machine.
func (r *Runner) Machine() *hfsm.Machine { return r.machine }

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Start initializes the machine if needed and begins ticking. The loop ends
// when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.ctrl.Lock()
	defer r.ctrl.Unlock()
	if r.running {
		return ErrRunning
	}
	if err := r.ensureInitialized(); err != nil {
		return err
	}

	tickCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	r.running = true

	go r.tickLoop(tickCtx, r.stopped)

	r.logger.Debug().Dur("tick_rate", r.cfg.TickRate).Msg("runner started")
	return nil
}

// Stop ends the tick loop, waits for it to exit and then stops the machine.
func (r *Runner) Stop() error {
	r.ctrl.Lock()
	defer r.ctrl.Unlock()
	if !r.running {
		return ErrNotRunning
	}
	r.running = false

	r.cancel()
	<-r.stopped

	r.logger.Debug().Uint64("ticks", r.Ticks()).Msg("runner stopped")
	if !r.machine.Initialized() {
		return nil
	}
	return r.machine.Stop()
}

// Step processes exactly one tick on the calling goroutine. It is meant for
// tests and hand-driven loops and fails while the tick loop runs.
func (r *Runner) Step() error {
	r.ctrl.Lock()
	defer r.ctrl.Unlock()
	if r.running {
		return ErrRunning
	}
	if err := r.ensureInitialized(); err != nil {
		return err
	}
	r.safeTick()
	return nil
}

// Request asks for a switch to the state registered under name. Requests are
// applied in submission order at the start of the next tick. Safe for
// concurrent use.
func (r *Runner) Request(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) >= r.cfg.MaxRequestsPerTick {
		return ErrQueueFull
	}
	r.requests = append(r.requests, name)
	return nil
}

// Active returns the name of the active leaf as of the last switch, or "".
// Safe for concurrent use.
func (r *Runner) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Ticks returns the number of processed ticks.
func (r *Runner) Ticks() uint64 { return r.tickNum.Load() }

// ensureInitialized must be called with r.ctrl held.
func (r *Runner) ensureInitialized() error {
	if r.machine.Initialized() {
		return nil
	}
	return r.machine.Initialize()
}

func (r *Runner) tickLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(r.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.safeTick()
		}
	}
}

// safeTick keeps a panicking behavior from killing the tick loop.
func (r *Runner) safeTick() {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Interface("panic", p).Uint64("tick", r.Ticks()).Msg("recovered panic in tick")
		}
	}()
	r.processTick()
}

// processTick applies queued requests, then advances the machine by one
// fixed step.
func (r *Runner) processTick() {
	start := time.Now()
	defer func() {
		r.tickNum.Add(1)
		if r.tickObserver != nil {
			r.tickObserver.ObserveTick(time.Since(start))
		}
	}()

	requests := r.collectRequests()
	defer r.recycle(requests)
	for _, name := range requests {
		r.machine.SetStateByName(name)
	}

	r.machine.Update(r.cfg.TickRate)
}

// collectRequests atomically swaps out the pending batch.
func (r *Runner) collectRequests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.requests
	r.requests = r.spare[:0]
	r.spare = nil
	return batch
}

func (r *Runner) recycle(batch []string) {
	clear(batch)
	r.mu.Lock()
	r.spare = batch[:0]
	r.mu.Unlock()
}
