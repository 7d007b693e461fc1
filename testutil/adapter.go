package testutil

import (
	"context"
	"time"

	"github.com/comalice/hfsm"
	"github.com/comalice/hfsm/realtime"
)

// RuntimeAdapter provides a common interface for driving a machine directly
// and through a realtime.Runner, so the same scenario can run on both.
type RuntimeAdapter interface {
	Start(ctx context.Context) error
	Stop() error
	// Request asks for a switch by name, applied on the next Tick.
	Request(name string) error
	// Tick applies pending requests, then updates the machine once.
	Tick() error
	Active() string
}

// DirectAdapter drives the machine from the calling goroutine.
type DirectAdapter struct {
	m       *hfsm.Machine
	dt      time.Duration
	pending []string
}

// NewDirectAdapter creates an adapter that advances m by dt per Tick.
func NewDirectAdapter(m *hfsm.Machine, dt time.Duration) *DirectAdapter {
	return &DirectAdapter{m: m, dt: dt}
}

func (a *DirectAdapter) Start(context.Context) error {
	return a.m.Initialize()
}

func (a *DirectAdapter) Stop() error {
	return a.m.Stop()
}

func (a *DirectAdapter) Request(name string) error {
	a.pending = append(a.pending, name)
	return nil
}

func (a *DirectAdapter) Tick() error {
	for _, name := range a.pending {
		a.m.SetStateByName(name)
	}
	a.pending = a.pending[:0]
	a.m.Update(a.dt)
	return nil
}

func (a *DirectAdapter) Active() string {
	if s := a.m.ActiveState(); s != nil {
		return s.Name()
	}
	return ""
}

// TickBasedAdapter wraps a realtime.Runner stepped by hand, so ticks are
// deterministic while the request path is the runner's own.
type TickBasedAdapter struct {
	rt *realtime.Runner
}

// NewTickBasedAdapter creates a new adapter for the tick-based runner.
func NewTickBasedAdapter(m *hfsm.Machine, tickRate time.Duration) *TickBasedAdapter {
	return &TickBasedAdapter{
		rt: realtime.NewRunner(m, realtime.Config{TickRate: tickRate}),
	}
}

// Runner returns the wrapped runner.
func (a *TickBasedAdapter) Runner() *realtime.Runner { return a.rt }

// Start initializes the machine without starting the tick loop.
func (a *TickBasedAdapter) Start(context.Context) error {
	m := a.machine()
	if m.Initialized() {
		return hfsm.ErrAlreadyInitialized
	}
	return m.Initialize()
}

func (a *TickBasedAdapter) Stop() error {
	return a.machine().Stop()
}

func (a *TickBasedAdapter) Request(name string) error {
	return a.rt.Request(name)
}

func (a *TickBasedAdapter) Tick() error {
	return a.rt.Step()
}

func (a *TickBasedAdapter) Active() string {
	return a.rt.Active()
}

func (a *TickBasedAdapter) machine() *hfsm.Machine { return a.rt.Machine() }
