package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hfsm"
)

func newMachine(t *testing.T, opts ...hfsm.Option) *hfsm.Machine {
	t.Helper()
	b := hfsm.NewBuilder("Root", append([]hfsm.Option{hfsm.WithName("ai")}, opts...)...)
	b.State("Idle", nil)
	b.State("Move.Walk", nil)
	b.State("Move.Run", nil)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestZerologReporter(t *testing.T) {
	var buf bytes.Buffer
	m := newMachine(t, hfsm.WithErrorReporter(NewZerologReporter(zerolog.New(&buf))))
	require.NoError(t, m.Initialize())

	m.SetStateByName("Missing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "state machine error", entry["message"])
	assert.Contains(t, entry["err"], `"Missing"`)
}

func TestMetricsAttach(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt, err := NewMetrics(reg, "hfsm")
	require.NoError(t, err)

	m := newMachine(t)
	detach := mt.Attach(m)
	require.NoError(t, m.Initialize())
	require.True(t, m.SetStateByName("Run"))

	assert.Equal(t, 1.0, testutil.ToFloat64(mt.stateChanges.WithLabelValues("ai", "", "Idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.stateChanges.WithLabelValues("ai", "Idle", "Run")))
	assert.Equal(t, 3.0, testutil.ToFloat64(mt.activeDepth.WithLabelValues("ai")))

	detach()
	require.True(t, m.SetStateByName("Walk"))
	assert.Equal(t, 0.0, testutil.ToFloat64(mt.stateChanges.WithLabelValues("ai", "Run", "Walk")))
}

func TestMetricsRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg, "hfsm")
	require.NoError(t, err)

	_, err = NewMetrics(reg, "hfsm")
	assert.Error(t, err)
}

func TestMetricsReporter(t *testing.T) {
	mt, err := NewMetrics(prometheus.NewRegistry(), "hfsm")
	require.NoError(t, err)

	var forwarded []string
	rep := mt.Reporter("ai", hfsm.ErrorReporterFunc(func(msg string) { forwarded = append(forwarded, msg) }))
	m := newMachine(t, hfsm.WithErrorReporter(rep))
	require.NoError(t, m.Initialize())

	m.SetStateByName("Missing")
	m.SetStateByName("AlsoMissing")

	assert.Equal(t, 2.0, testutil.ToFloat64(mt.errors.WithLabelValues("ai")))
	assert.Len(t, forwarded, 2)

	// A nil next reporter only counts.
	mt.Reporter("other", nil).LogError("x")
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.errors.WithLabelValues("other")))
}

func TestMetricsObserveTick(t *testing.T) {
	mt, err := NewMetrics(prometheus.NewRegistry(), "hfsm")
	require.NoError(t, err)

	mt.ObserveTick(time.Millisecond)
	mt.ObserveTick(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(mt.ticks))
	assert.Equal(t, 1, testutil.CollectAndCount(mt.tickDuration))
}

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan PublishedChange, 10)
	p := NewChannelPublisher(ch)

	m := newMachine(t)
	detach := p.Attach(m)
	defer detach()
	require.NoError(t, m.Initialize())
	require.True(t, m.SetStateByName("Run"))

	first := <-ch
	assert.Equal(t, "ai", first.Machine)
	assert.NotEmpty(t, first.Session)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, "", first.From)
	assert.Equal(t, "Idle", first.To)
	assert.Equal(t, "Root.Idle", first.Path)
	assert.False(t, first.Timestamp.IsZero())

	second := <-ch
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, first.Session, second.Session)
	assert.Equal(t, "Idle", second.From)
	assert.Equal(t, "Root.Move.Run", second.Path)
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan PublishedChange, 1)
	p := NewChannelPublisher(ch)
	ch <- PublishedChange{} // Fill buffer

	err := p.Publish(context.Background(), PublishedChange{To: "Idle"})
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), p.Dropped())
}

func TestChannelPublisher_Close(t *testing.T) {
	ch := make(chan PublishedChange, 1)
	p := NewChannelPublisher(ch)
	require.NoError(t, p.Close())

	_, ok := <-ch
	assert.False(t, ok)
}
