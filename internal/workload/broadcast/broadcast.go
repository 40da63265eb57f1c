package broadcast

import (
	"sort"
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

const (
	// GossipTimer is the periodic full-state fanout tag, independent of the
	// immediate tree-edge forwarding done on receipt of a new message.
	GossipTimer types.TimerTag = "gossip"
	// GossipInterval matches the convergence bound exercised in acceptance
	// scenarios: at most one tick per hop before a read sees a message.
	GossipInterval = 250 * time.Millisecond
	// ForwardTimeout is how long a tree-edge forward waits before the
	// tender reissues it under a fresh id.
	ForwardTimeout = 300 * time.Millisecond
)

// Handler is the tree-topology broadcast workload. A freshly seen message is
// forwarded once, reliably, to every tree neighbour other than the sender;
// a periodic gossip timer additionally fans the full held set out to every
// peer as a resilience backstop.
type Handler struct {
	mu         sync.Mutex
	neighbours []types.NodeID
	peers      []types.NodeID
	seen       map[int]struct{}
}

// New builds the tree broadcast handler and registers its gossip timer.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	topology := ComputeTopology(cluster.NodeIDs)
	timers.RegisterTimer(GossipTimer, GossipInterval)
	return &Handler{
		neighbours: topology[cluster.NodeID],
		peers:      cluster.Peers(),
		seen:       make(map[int]struct{}),
	}, nil
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}

	switch kind {
	case "topology":
		_, err := io.RPCReply(incoming, topologyOk{Type: "topology_ok"})
		return err

	case "broadcast":
		var p broadcastPayload
		if err := incoming.Unmarshal(&p); err != nil {
			return err
		}
		if err := p.validate(); err != nil {
			return err
		}
		if p.Message != nil {
			h.observe(*p.Message, io, incoming.Src)
		}
		_, err := io.RPCReply(incoming, broadcastOk{Type: "broadcast_ok"})
		return err

	case "broadcast_ok":
		io.RPCMarkCompleted(incoming)
		return nil

	case "gossip":
		var p gossipPayload
		if err := incoming.Unmarshal(&p); err != nil {
			return err
		}
		h.mergeAll(p.Messages)
		return nil

	case "read":
		_, err := io.RPCReply(incoming, readOk{Type: "read_ok", Messages: h.snapshot()})
		return err

	default:
		return nil
	}
}

func (h *Handler) OnTimer(cluster types.ClusterState, io *node.Port, tag types.TimerTag) error {
	if tag != GossipTimer {
		return nil
	}
	messages := h.snapshot()
	if len(messages) == 0 {
		return nil
	}
	for _, peer := range h.peers {
		io.FireAndForget(peer, gossipPayload{Type: "gossip", Messages: messages})
	}
	return nil
}

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}

// observe records message as seen and, if it was new, forwards it reliably
// to every tree neighbour other than from.
func (h *Handler) observe(message int, io *node.Port, from types.NodeID) {
	h.mu.Lock()
	_, known := h.seen[message]
	if !known {
		h.seen[message] = struct{}{}
	}
	neighbours := h.neighbours
	h.mu.Unlock()

	if known {
		return
	}
	for _, n := range neighbours {
		if n == from {
			continue
		}
		m := message
		_, _ = io.RPCRequestWithRetry(n, broadcastPayload{Type: "broadcast", Message: &m}, ForwardTimeout)
	}
}

func (h *Handler) mergeAll(messages []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range messages {
		h.seen[m] = struct{}{}
	}
}

func (h *Handler) snapshot() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, 0, len(h.seen))
	for m := range h.seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
