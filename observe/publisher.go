package observe

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/hfsm"
)

// PublishedChange is a state change flattened for consumers on other
// goroutines, which must not touch the machine's *State values.
type PublishedChange struct {
	Machine   string
	Session   string // unique per Attach
	Seq       uint64
	From      string
	To        string
	Path      string
	Timestamp time.Time
}

// ChannelPublisher forwards state changes to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan<- PublishedChange
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedChange) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish sends change unless ctx is done or the channel is full, in which
// case the change is counted as dropped.
func (p *ChannelPublisher) Publish(ctx context.Context, change PublishedChange) error {
	select {
	case p.ch <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil
	}
}

// Attach publishes every state change of m. The returned func detaches.
func (p *ChannelPublisher) Attach(m *hfsm.Machine) func() {
	name := m.Name()
	session := uuid.Must(uuid.NewV7()).String()
	h := m.OnStateChanged(func(c hfsm.StateChange) {
		change := PublishedChange{
			Machine:   name,
			Session:   session,
			Seq:       p.seq.Add(1),
			From:      nameOf(c.From),
			To:        nameOf(c.To),
			Timestamp: time.Now(),
		}
		if c.To != nil {
			change.Path = c.To.Path()
		}
		_ = p.Publish(context.Background(), change)
	})
	return func() { m.Unsubscribe(h) }
}

// Dropped returns the number of changes dropped on a full channel.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// Close closes the output channel. Detach from every machine first.
func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
