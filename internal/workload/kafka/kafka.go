// Package kafka implements the partitioned log reference workload: a set of
// per-key append-only logs, sharded across the cluster by key, with
// leader-forwarded writes and, in multi-node clusters, periodic replica
// catch-up polling.
package kafka

import (
	"strconv"
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

// ReplicaPollTimer drives periodic catch-up pulls from each key's leader.
const ReplicaPollTimer types.TimerTag = "replica_poll"

// ReplicaPollInterval is that timer's cadence.
const ReplicaPollInterval = 250 * time.Millisecond

// ReplicaPollTimeout bounds a single catch-up round; it is not retried,
// since the next tick supersedes it anyway.
const ReplicaPollTimeout = 5 * time.Second

// SendForwardTimeout bounds a follower's forwarded send to a key's leader.
const SendForwardTimeout = 250 * time.Millisecond

// CommitForwardTimeout bounds fanning out a commit to the rest of the
// cluster.
const CommitForwardTimeout = 250 * time.Millisecond

// Handler is the partitioned log workload. A single-node cluster degrades
// to a plain local log (every key's leader is itself, replica polling has
// no peers to reach) with a smaller poll cap; a multi-node cluster shards
// keys by index into the cluster's node list and replicates leader-owned
// records to followers on a timer.
type Handler struct {
	mu          sync.Mutex
	self        types.NodeID
	nodeIndex   []types.NodeID
	myIndex     int
	logs        map[string]*partitionLog
	offsetStore map[string]int
}

// New builds the kafka handler and, for multi-node clusters, registers the
// replica-poll timer.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	myIndex := 0
	for i, id := range cluster.NodeIDs {
		if id == cluster.NodeID {
			myIndex = i
			break
		}
	}
	if len(cluster.NodeIDs) > 1 {
		timers.RegisterTimer(ReplicaPollTimer, ReplicaPollInterval)
	}
	return &Handler{
		self:        cluster.NodeID,
		nodeIndex:   append([]types.NodeID(nil), cluster.NodeIDs...),
		myIndex:     myIndex,
		logs:        make(map[string]*partitionLog),
		offsetStore: make(map[string]int),
	}, nil
}

func (h *Handler) pollCap() int {
	if len(h.nodeIndex) <= 1 {
		return 10
	}
	return 50
}

func (h *Handler) leaderIndex(key string) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, err
	}
	return n % len(h.nodeIndex), nil
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}

	switch kind {
	case "send":
		return h.onSend(io, incoming)
	case "send_ok":
		return h.onSendOk(io, incoming)
	case "poll":
		return h.onPoll(io, incoming)
	case "commit_offsets":
		return h.onCommitOffsets(cluster, io, incoming)
	case "commit_offsets_ok":
		if io.RPCStillPending(incoming) {
			io.RPCMarkCompleted(incoming)
		}
		return nil
	case "list_committed_offsets":
		return h.onListCommittedOffsets(io, incoming)
	case "replica_poll":
		return h.onReplicaPoll(io, incoming)
	case "replica_poll_ok":
		return h.onReplicaPollOk(io, incoming)
	default:
		return nil
	}
}

func (h *Handler) onSend(io *node.Port, incoming types.Envelope) error {
	var p sendPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}

	leader, err := h.leaderIndex(p.Key)
	if err != nil {
		return err
	}

	if leader == h.myIndex {
		offset := h.appendLocal(p.Key, p.Msg)
		_, err := io.RPCReply(incoming, sendOkPayload{Type: "send_ok", Offset: offset, ForwardedFor: p.ForwardedFor})
		return err
	}

	msgID, _ := incoming.MsgID()
	forward := sendPayload{
		Type:         "send",
		Key:          p.Key,
		Msg:          p.Msg,
		ForwardedFor: &forwardedFor{Dest: incoming.Src, MsgID: msgID},
	}
	_, err = io.RPCRequestWithRetry(h.nodeIndex[leader], forward, SendForwardTimeout)
	return err
}

func (h *Handler) onSendOk(io *node.Port, incoming types.Envelope) error {
	if !io.RPCStillPending(incoming) {
		return nil
	}
	var p sendOkPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}
	io.RPCMarkCompleted(incoming)
	if p.ForwardedFor == nil {
		return nil
	}
	msgID := p.ForwardedFor.MsgID
	_, err := io.Send(p.ForwardedFor.Dest, &msgID, sendOkPayload{Type: "send_ok", Offset: p.Offset})
	return err
}

func (h *Handler) onPoll(io *node.Port, incoming types.Envelope) error {
	var p pollPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}
	limit := h.pollCap()

	h.mu.Lock()
	msgs := make(map[string][]record, len(p.Offsets))
	for key, offset := range p.Offsets {
		if log, ok := h.logs[key]; ok {
			msgs[key] = log.readFrom(offset, limit)
		}
	}
	h.mu.Unlock()

	_, err := io.RPCReply(incoming, pollOkPayload{Type: "poll_ok", Msgs: msgs})
	return err
}

func (h *Handler) onCommitOffsets(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	var p commitOffsetsPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}

	h.mu.Lock()
	for key, offset := range p.Offsets {
		if offset > h.offsetStore[key] {
			h.offsetStore[key] = offset
		}
	}
	h.mu.Unlock()

	for _, peer := range cluster.Peers() {
		if peer == incoming.Src {
			continue
		}
		_, _ = io.RPCRequestWithRetry(peer, commitOffsetsPayload{Type: "commit_offsets", Offsets: p.Offsets}, CommitForwardTimeout)
	}

	_, err := io.RPCReply(incoming, commitOffsetsOk{Type: "commit_offsets_ok"})
	return err
}

func (h *Handler) onListCommittedOffsets(io *node.Port, incoming types.Envelope) error {
	var p listCommittedOffsetsPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}

	h.mu.Lock()
	offsets := make(map[string]int, len(p.Keys))
	for _, key := range p.Keys {
		if offset, ok := h.offsetStore[key]; ok {
			offsets[key] = offset
		}
	}
	h.mu.Unlock()

	_, err := io.RPCReply(incoming, listCommittedOffsetsOk{Type: "list_committed_offsets_ok", Offsets: offsets})
	return err
}

func (h *Handler) onReplicaPoll(io *node.Port, incoming types.Envelope) error {
	var p replicaPollPayload
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}

	h.mu.Lock()
	msgs := make(map[string][]record)
	for key, log := range h.logs {
		leader, err := h.leaderIndex(key)
		if err != nil || leader != h.myIndex {
			continue
		}
		offset := p.Offsets[key]
		if recs := log.readFrom(offset, h.pollCap()); len(recs) > 0 {
			msgs[key] = recs
		}
	}
	h.mu.Unlock()

	_, err := io.RPCReply(incoming, replicaPollOk{Type: "replica_poll_ok", Msgs: msgs})
	return err
}

func (h *Handler) onReplicaPollOk(io *node.Port, incoming types.Envelope) error {
	if !io.RPCStillPending(incoming) {
		return nil
	}
	var p replicaPollOk
	if err := incoming.Unmarshal(&p); err != nil {
		return err
	}
	io.RPCMarkCompleted(incoming)

	h.mu.Lock()
	defer h.mu.Unlock()
	for key, recs := range p.Msgs {
		log := h.logOf(key)
		log.appendRecords(recs)
	}
	return nil
}

func (h *Handler) OnTimer(cluster types.ClusterState, io *node.Port, tag types.TimerTag) error {
	if tag != ReplicaPollTimer {
		return nil
	}

	perLeader := make(map[int]map[string]int)
	h.mu.Lock()
	for key, log := range h.logs {
		leader, err := h.leaderIndex(key)
		if err != nil || leader == h.myIndex {
			continue
		}
		if perLeader[leader] == nil {
			perLeader[leader] = make(map[string]int)
		}
		perLeader[leader][key] = log.currentOffset() + 1
	}
	h.mu.Unlock()

	for i, peer := range h.nodeIndex {
		if i == h.myIndex {
			continue
		}
		offsets := perLeader[i]
		if offsets == nil {
			offsets = map[string]int{}
		}
		_, _ = io.RPCRequest(peer, replicaPollPayload{Type: "replica_poll", Offsets: offsets}, ReplicaPollTimeout, false)
	}
	return nil
}

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}

func (h *Handler) appendLocal(key string, message int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logOf(key).append(message)
}

// logOf returns key's log, creating it if absent. Callers must hold h.mu.
func (h *Handler) logOf(key string) *partitionLog {
	log, ok := h.logs[key]
	if !ok {
		log = &partitionLog{}
		h.logs[key] = log
	}
	return log
}
