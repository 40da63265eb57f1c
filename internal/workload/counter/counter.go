// Package counter implements the grow-only counter reference workload: a
// CRDT where each node tracks, per origin node, the highest contribution it
// has observed, and the visible total is the sum across origins.
package counter

import (
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

// ReplicateTimer drives periodic full-value gossip so a node that never
// receives a direct add still converges by replicating its own (zero)
// contribution and observing its peers'.
const ReplicateTimer types.TimerTag = "replicate"

// ReplicateInterval is the cadence of that periodic gossip.
const ReplicateInterval = 200 * time.Millisecond

// ReplicateTimeout bounds each replicate RPC before the tender retries it.
const ReplicateTimeout = 500 * time.Millisecond

type addPayload struct {
	Type  string `json:"type"`
	Delta int    `json:"delta"`
}

type addOk struct {
	Type string `json:"type"`
}

type readOk struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type replicatePayload struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type replicateOk struct {
	Type string `json:"type"`
}

// Handler is the grow-only counter workload: a map from origin node to that
// node's highest known contribution. Replicate carries a node's own running
// total rather than a delta, so repeated or retried delivery only ever
// advances a peer's view (max, not add), making convergence idempotent.
type Handler struct {
	mu         sync.Mutex
	self       types.NodeID
	peers      []types.NodeID
	contribute map[types.NodeID]int
}

// New builds the counter handler and registers its replication timer.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	timers.RegisterTimer(ReplicateTimer, ReplicateInterval)
	return &Handler{
		self:       cluster.NodeID,
		peers:      cluster.Peers(),
		contribute: make(map[types.NodeID]int),
	}, nil
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}

	switch kind {
	case "add":
		var p addPayload
		if err := incoming.Unmarshal(&p); err != nil {
			return err
		}
		h.addLocal(p.Delta)
		_, err := io.RPCReply(incoming, addOk{Type: "add_ok"})
		return err

	case "read":
		_, err := io.RPCReply(incoming, readOk{Type: "read_ok", Value: h.total()})
		return err

	case "replicate":
		var p replicatePayload
		if err := incoming.Unmarshal(&p); err != nil {
			return err
		}
		h.observe(incoming.Src, p.Value)
		_, err := io.RPCReply(incoming, replicateOk{Type: "replicate_ok"})
		return err

	case "replicate_ok":
		io.RPCMarkCompleted(incoming)
		return nil

	default:
		return nil
	}
}

func (h *Handler) OnTimer(cluster types.ClusterState, io *node.Port, tag types.TimerTag) error {
	if tag != ReplicateTimer {
		return nil
	}
	value := h.ownValue()
	for _, peer := range h.peers {
		_, _ = io.RPCRequestWithRetry(peer, replicatePayload{Type: "replicate", Value: value}, ReplicateTimeout)
	}
	return nil
}

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}

func (h *Handler) addLocal(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contribute[h.self] += delta
}

func (h *Handler) observe(origin types.NodeID, value int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value > h.contribute[origin] {
		h.contribute[origin] = value
	}
}

func (h *Handler) ownValue() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contribute[h.self]
}

func (h *Handler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	sum := 0
	for _, v := range h.contribute {
		sum += v
	}
	return sum
}
