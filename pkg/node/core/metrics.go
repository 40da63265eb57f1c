package core

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Metrics holds the runtime's internal counters and gauges. The spec keeps
// transport to stdin/stdout only (§1 Non-goals), so these are never served
// over HTTP; instead a Snapshot is logged periodically, the way the
// teacher's components log a one-line status on shutdown (e.g.
// "closing the peer %s" in pkg/mcast/core/peer.go). Grounded on the
// metrics/stats domain of the sibling pack repository (rockstar-0000-
// aistore's stats package), which pairs prometheus/client_golang with the
// prometheus/common types the teacher already depends on.
type Metrics struct {
	registry *prometheus.Registry

	sent      prometheus.Counter
	received  prometheus.Counter
	retries   prometheus.Counter
	timeouts  prometheus.Counter
	timerFire prometheus.Counter
	pending   prometheus.Gauge
}

// NewMetrics registers a fresh set of collectors for one node instance.
func NewMetrics(nodeID string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"node": nodeID}

	m := &Metrics{
		registry: reg,
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "maelnode_envelopes_sent_total",
			Help:        "Envelopes written to the output port.",
			ConstLabels: labels,
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "maelnode_envelopes_received_total",
			Help:        "Envelopes read from the input port.",
			ConstLabels: labels,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "maelnode_rpc_retries_total",
			Help:        "RPC requests re-issued by the tender after timing out.",
			ConstLabels: labels,
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "maelnode_rpc_timeouts_total",
			Help:        "RPC requests that expired, retried or not.",
			ConstLabels: labels,
		}),
		timerFire: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "maelnode_timer_fires_total",
			Help:        "Application timer firings delivered to the handler.",
			ConstLabels: labels,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "maelnode_pending_requests",
			Help:        "Outbound RPC requests currently awaiting a reply.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(m.sent, m.received, m.retries, m.timeouts, m.timerFire, m.pending)
	return m
}

func (m *Metrics) ObserveSent()           { m.sent.Inc() }
func (m *Metrics) ObserveReceived()       { m.received.Inc() }
func (m *Metrics) ObserveRetry()          { m.retries.Inc() }
func (m *Metrics) ObserveTimeout()        { m.timeouts.Inc() }
func (m *Metrics) ObserveTimerFire()      { m.timerFire.Inc() }
func (m *Metrics) SetPending(depth int)   { m.pending.Set(float64(depth)) }

// Snapshot gathers the current metric families for logging.
type Snapshot struct {
	Sent, Received, Retries, Timeouts, TimerFires float64
	Pending                                       float64
}

// Gather reads the current collector values.
func (m *Metrics) Gather() Snapshot {
	return Snapshot{
		Sent:       readCounter(m.sent),
		Received:   readCounter(m.received),
		Retries:    readCounter(m.retries),
		Timeouts:   readCounter(m.timeouts),
		TimerFires: readCounter(m.timerFire),
		Pending:    readGauge(m.pending),
	}
}

// LogSnapshot writes a one-line status through logger, in the teacher's
// terse diagnostic style.
func (m *Metrics) LogSnapshot(logger types.Logger) {
	s := m.Gather()
	logger.Debugf("stats sent=%.0f received=%.0f pending=%.0f retries=%.0f timeouts=%.0f timers=%.0f",
		s.Sent, s.Received, s.Pending, s.Retries, s.Timeouts, s.TimerFires)
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	_ = c.Write(&m)
	return m.GetCounter().GetValue()
}

func readGauge(g prometheus.Gauge) float64 {
	var m dto.Metric
	_ = g.Write(&m)
	return m.GetGauge().GetValue()
}
