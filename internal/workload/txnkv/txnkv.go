// Package txnkv implements the transactional key/value reference workload:
// a store of integer keys to integer values, read and written through
// ordered op triples, with writes replicated to every other node in
// multi-node clusters.
package txnkv

import (
	"time"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

// ReplicateTimeout bounds fanning a transaction's writes out to peers.
const ReplicateTimeout = 500 * time.Millisecond

// Handler is the transactional KV workload. Operations within a single txn
// are applied in order against the local store; a node never blocks a
// reply on replication completing: writes are sent to peers first and the
// txn_ok reply follows, matching the fire-then-reply shape of the
// reference implementation.
type Handler struct {
	store map[int]int
}

// New builds the txn-kv handler. It registers no timers; in a single-node
// cluster cluster.Peers() is empty and replication is a no-op.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	return &Handler{store: make(map[int]int)}, nil
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}

	switch kind {
	case "txn":
		return h.onTxn(cluster, io, incoming)
	case "replicate":
		return h.onReplicate(io, incoming)
	case "replicate_ok":
		io.RPCMarkCompleted(incoming)
		return nil
	default:
		return nil
	}
}

func (h *Handler) onTxn(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	var p txnPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}

	result := make([]op, 0, len(p.Txn))
	var writes []op
	for _, o := range p.Txn {
		switch o.Kind {
		case "r":
			if v, ok := h.store[o.Key]; ok {
				value := v
				result = append(result, op{Kind: "r", Key: o.Key, Value: &value})
			} else {
				result = append(result, op{Kind: "r", Key: o.Key, Value: nil})
			}
		case "w":
			h.store[o.Key] = *o.Value
			result = append(result, o)
			writes = append(writes, o)
		}
	}

	if len(writes) > 0 {
		for _, peer := range cluster.Peers() {
			_, _ = io.RPCRequestWithRetry(peer, replicatePayload{Type: "replicate", Ops: writes}, ReplicateTimeout)
		}
	}

	_, err := io.RPCReply(incoming, txnPayload{Type: "txn_ok", Txn: result})
	return err
}

func (h *Handler) onReplicate(io *node.Port, incoming types.Envelope) error {
	var p replicatePayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}
	for _, o := range p.Ops {
		if o.Kind == "w" {
			h.store[o.Key] = *o.Value
		}
	}
	_, err := io.RPCReply(incoming, replicateOk{Type: "replicate_ok"})
	return err
}

func (h *Handler) OnTimer(types.ClusterState, *node.Port, types.TimerTag) error { return nil }

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}
