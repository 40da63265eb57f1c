// Package uniqueids implements the unique-id-generation reference workload:
// every generate request is answered with an id formed from this node's own
// identifier and a private monotonic counter, so ids never collide across
// nodes without any coordination.
package uniqueids

import (
	"fmt"
	"sync"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

type generateOk struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Handler hands out ids of the form "<node_id>-<seq>", seq starting at 1.
// The counter is private to this handler and unrelated to the outbound
// port's own msg_id sequence.
type Handler struct {
	mu  sync.Mutex
	seq int
}

// New constructs the unique-id handler. It registers no timers.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	return &Handler{seq: 1}, nil
}

func (h *Handler) nextID(nodeID types.NodeID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := fmt.Sprintf("%s-%d", nodeID, h.seq)
	h.seq++
	return id
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}
	if kind != "generate" {
		return nil
	}
	_, err = io.RPCReply(incoming, generateOk{Type: "generate_ok", ID: h.nextID(cluster.NodeID)})
	return err
}

func (h *Handler) OnTimer(types.ClusterState, *node.Port, types.TimerTag) error { return nil }

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}
