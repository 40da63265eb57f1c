package broadcast

import (
	"sort"
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

// BatchTimer drives the coalesced variant's flush, at the same cadence as
// the tree variant's gossip timer.
const BatchTimer types.TimerTag = "flush"

// BatchInterval is how often each neighbour's outbox is flushed as one
// broadcast{batch:[...]} request instead of one request per message.
const BatchInterval = 250 * time.Millisecond

// BatchHandler is the batched broadcast workload: newly seen messages are
// coalesced into a per-neighbour outbox instead of forwarded immediately,
// and the outbox is flushed as a single batched, retried RPC per tick. This
// trades latency for far fewer messages under load.
type BatchHandler struct {
	mu         sync.Mutex
	neighbours []types.NodeID
	seen       map[int]struct{}
	outbox     map[types.NodeID][]int
}

// NewBatched builds the batched broadcast handler and registers its flush
// timer.
func NewBatched(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	topology := ComputeTopology(cluster.NodeIDs)
	timers.RegisterTimer(BatchTimer, BatchInterval)
	return &BatchHandler{
		neighbours: topology[cluster.NodeID],
		seen:       make(map[int]struct{}),
		outbox:     make(map[types.NodeID][]int),
	}, nil
}

func (h *BatchHandler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
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
		switch {
		case p.Message != nil:
			h.observe([]int{*p.Message}, incoming.Src)
		case p.Batch != nil:
			h.observe(p.Batch, incoming.Src)
		}
		_, err := io.RPCReply(incoming, broadcastOk{Type: "broadcast_ok"})
		return err

	case "broadcast_ok":
		io.RPCMarkCompleted(incoming)
		return nil

	case "read":
		_, err := io.RPCReply(incoming, readOk{Type: "read_ok", Messages: h.snapshot()})
		return err

	default:
		return nil
	}
}

func (h *BatchHandler) OnTimer(cluster types.ClusterState, io *node.Port, tag types.TimerTag) error {
	if tag != BatchTimer {
		return nil
	}
	flushes := h.drainOutbox()
	for neighbour, batch := range flushes {
		_, _ = io.RPCRequestWithRetry(neighbour, broadcastPayload{Type: "broadcast", Batch: batch}, ForwardTimeout)
	}
	return nil
}

func (h *BatchHandler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}

// observe records each message in messages as seen and, for every one that
// was new, queues it into every neighbour's outbox other than from.
func (h *BatchHandler) observe(messages []int, from types.NodeID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range messages {
		if _, known := h.seen[m]; known {
			continue
		}
		h.seen[m] = struct{}{}
		for _, n := range h.neighbours {
			if n == from {
				continue
			}
			h.outbox[n] = append(h.outbox[n], m)
		}
	}
}

// drainOutbox returns every neighbour's queued batch and empties the
// outbox; flushed batches become the tender's responsibility to retry.
func (h *BatchHandler) drainOutbox() map[types.NodeID][]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	flushes := make(map[types.NodeID][]int, len(h.outbox))
	for n, batch := range h.outbox {
		if len(batch) == 0 {
			continue
		}
		flushes[n] = batch
	}
	h.outbox = make(map[types.NodeID][]int)
	return flushes
}

func (h *BatchHandler) snapshot() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, 0, len(h.seen))
	for m := range h.seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
