package core

import (
	"io"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// HardCap bounds how long the dispatcher ever waits for the next event,
// so the tender and timer registry are serviced even with no pending work
// at all (§4.5).
const HardCap = 1 * time.Second

// Handler is the workload state machine the dispatcher drives. All three
// operations receive exclusive access to the handler's own state: the
// dispatcher never calls back into a handler concurrently with itself.
type Handler interface {
	OnMessage(cluster types.ClusterState, io *Port, incoming types.Envelope) error
	OnTimer(cluster types.ClusterState, io *Port, tag types.TimerTag) error
	OnRPCTimeout(cluster types.ClusterState, io *Port, expired types.PendingRequest) error
}

// Timers is the registration surface a handler's init function is given.
type Timers interface {
	RegisterTimer(tag types.TimerTag, interval time.Duration)
}

// timerRegistrarAt adapts a *TimerRegistry to Timers, seeding every
// registration's last-fire instant to a fixed moment (handshake time).
type timerRegistrarAt struct {
	registry *TimerRegistry
	at       time.Time
}

func (t timerRegistrarAt) RegisterTimer(tag types.TimerTag, interval time.Duration) {
	t.registry.Register(tag, interval, t.at)
}

// InitFunc constructs a Handler from the cluster state, registering any
// periodic timers it needs along the way. Mirrors the teacher's
// Server.init(cluster_state, timers) contract
// (pkg/mcast/core/peer.go-adjacent Server interface referenced by every
// mcast binary under the original_source tree).
type InitFunc func(cluster types.ClusterState, timers Timers) (Handler, error)

type readResult struct {
	env types.Envelope
	err error
}

// Dispatcher is the single consumer that multiplexes inbound messages,
// timer ticks, and reader EOF into one ordered stream, servicing the
// tender and timer registry between events. Mirrors the shape of the
// teacher's Peer.poll select loop (pkg/mcast/core/peer.go), generalized
// with a deadline-bounded wait instead of an unbounded channel receive.
type Dispatcher struct {
	cluster types.ClusterState
	port    *Port
	pending *PendingTable
	tender  *Tender
	timers  *TimerRegistry
	handler Handler
	logger  types.Logger
	metrics *Metrics
	invoker Invoker
}

// NewDispatcher wires a dispatcher around an already-handshaken port.
func NewDispatcher(cluster types.ClusterState, port *Port, handler Handler, timers *TimerRegistry, logger types.Logger, metrics *Metrics, invoker Invoker) *Dispatcher {
	return &Dispatcher{
		cluster: cluster,
		port:    port,
		pending: port.Pending(),
		tender:  NewTender(port, metrics, logger),
		timers:  timers,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		invoker: invoker,
	}
}

// Run drives the event loop until input EOF (success) or a fatal error.
func (d *Dispatcher) Run(dec *Decoder) error {
	ch := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	d.invoker.Spawn(func() {
		for {
			env, err := dec.Next()
			if err == io.EOF {
				close(ch)
				return
			}
			select {
			case ch <- readResult{env: env, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	})

	nextTick := time.Now().Add(HardCap)
	for {
		remaining := time.Until(nextTick)
		if remaining < 0 {
			remaining = 0
		}
		timer := time.NewTimer(remaining)

		select {
		case res, ok := <-ch:
			timer.Stop()
			if !ok {
				return nil
			}
			if res.err != nil {
				return res.err
			}
			if d.metrics != nil {
				d.metrics.ObserveReceived()
			}
			if err := d.dispatchMessage(res.env); err != nil {
				return err
			}
		case <-timer.C:
		}

		now := time.Now()
		if !now.Before(nextTick) {
			hint, err := d.tick(now)
			if err != nil {
				return err
			}
			nextTick = now.Add(hint)
		}
	}
}

func (d *Dispatcher) dispatchMessage(env types.Envelope) error {
	return d.handler.OnMessage(d.cluster, d.port, env)
}

// tick services the tender and timer registry once, delivering
// on_rpc_timeout and on_timer callbacks, and returns the combined sleep
// hint capped at HardCap.
func (d *Dispatcher) tick(now time.Time) (time.Duration, error) {
	expired, tenderHint := d.tender.Tick(now)
	for _, req := range expired {
		if err := d.handler.OnRPCTimeout(d.cluster, d.port, req); err != nil {
			return 0, err
		}
	}

	fired, timerHint := d.timers.Tick(now)
	for _, tag := range fired {
		if d.metrics != nil {
			d.metrics.ObserveTimerFire()
		}
		if err := d.handler.OnTimer(d.cluster, d.port, tag); err != nil {
			return 0, err
		}
	}

	if d.metrics != nil {
		d.metrics.LogSnapshot(d.logger)
	}

	// tenderHint/timerHint are negative when that source has nothing
	// pending to report; HardCap is the fallback wait so an idle node
	// still wakes up to service the tender and timer registry, never a
	// busy-spin (§4.5, §5).
	hint := HardCap
	if tenderHint >= 0 && tenderHint < hint {
		hint = tenderHint
	}
	if timerHint >= 0 && timerHint < hint {
		hint = timerHint
	}
	return hint, nil
}
