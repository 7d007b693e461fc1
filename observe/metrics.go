package observe

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/hfsm"
)

// Metrics exports machine activity to Prometheus.
type Metrics struct {
	stateChanges *prometheus.CounterVec
	activeDepth  *prometheus.GaugeVec
	errors       *prometheus.CounterVec
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
}

// NewMetrics creates the collectors under namespace and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_changes_total",
				Help:      "Total number of active leaf changes.",
			},
			[]string{"machine", "from", "to"},
		),
		activeDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_path_depth",
				Help:      "Number of states on the active path.",
			},
			[]string{"machine"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reported_errors_total",
				Help:      "Total number of non-fatal errors reported by machines.",
			},
			[]string{"machine"},
		),
		ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Total number of processed ticks.",
			},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent processing one tick.",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{m.stateChanges, m.activeDepth, m.errors, m.ticks, m.tickDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Attach subscribes to m's state changes. The returned func detaches.
func (mt *Metrics) Attach(m *hfsm.Machine) func() {
	name := m.Name()
	h := m.OnStateChanged(func(c hfsm.StateChange) {
		depth := 0
		if c.To != nil {
			depth = c.To.Depth() + 1
		}
		mt.activeDepth.WithLabelValues(name).Set(float64(depth))
		mt.stateChanges.WithLabelValues(name, nameOf(c.From), nameOf(c.To)).Inc()
	})
	return func() { m.Unsubscribe(h) }
}

// Reporter returns an ErrorReporter that counts errors for machine and then
// forwards them to next (which may be nil).
func (mt *Metrics) Reporter(machine string, next hfsm.ErrorReporter) hfsm.ErrorReporter {
	counter := mt.errors.WithLabelValues(machine)
	return hfsm.ErrorReporterFunc(func(message string) {
		counter.Inc()
		if next != nil {
			next.LogError(message)
		}
	})
}

// ObserveTick records one processed tick.
func (mt *Metrics) ObserveTick(d time.Duration) {
	mt.ticks.Inc()
	mt.tickDuration.Observe(d.Seconds())
}

func nameOf(s *hfsm.State) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
