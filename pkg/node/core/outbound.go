package core

import (
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Port is the outbound I/O façade: it owns the sequence counter, the
// pending-request table, and the single encoder every send funnels
// through, so no two emitted envelopes can share a msg_id and no two
// writes can interleave. Mirrors the teacher's Peer.send /
// Peer.Command pairing of "allocate + write + track"
// (pkg/mcast/core/peer.go), generalized from the multicast protocol's
// emission kinds to the spec's send/reply/rpc operations.
type Port struct {
	mu      sync.Mutex
	nodeID  types.NodeID
	seq     int
	enc     *Encoder
	pending *PendingTable
	metrics *Metrics
	logger  types.Logger
}

// NewPort builds an outbound port bound to nodeID, writing through enc.
func NewPort(nodeID types.NodeID, enc *Encoder, metrics *Metrics, logger types.Logger) *Port {
	return &Port{
		nodeID:  nodeID,
		enc:     enc,
		pending: NewPendingTable(),
		metrics: metrics,
		logger:  logger,
	}
}

// AttachMetrics and AttachLogger let the caller wire up metrics/logging
// after the node id becomes known at handshake time, without disturbing
// the sequence counter or pending table already in use.
func (p *Port) AttachMetrics(metrics *Metrics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = metrics
}

func (p *Port) AttachLogger(logger types.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// nextID allocates the next sequence id. The first allocated id is 0 per
// §4.2 (the init_ok reply).
func (p *Port) nextID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.seq
	p.seq++
	return id
}

// Send writes an envelope from this node to dst carrying payload, with a
// fresh msg_id and, if inReplyTo is non-nil, that in_reply_to value. It
// returns the allocated msg_id.
func (p *Port) Send(dst types.NodeID, inReplyTo *int, payload interface{}) (int, error) {
	id := p.nextID()
	body, err := types.BuildBody(payload, &id, inReplyTo)
	if err != nil {
		return 0, err
	}
	env := types.Envelope{Src: p.nodeID, Dest: dst, Body: body}
	if err := p.enc.Write(env); err != nil {
		return 0, err
	}
	if p.metrics != nil {
		p.metrics.ObserveSent()
	}
	return id, nil
}

// FireAndForget sends a payload with no reply target, swallowing the error
// after logging it (the spec requires no propagation for best-effort
// gossip-style sends).
func (p *Port) FireAndForget(dst types.NodeID, payload interface{}) {
	if _, err := p.Send(dst, nil, payload); err != nil {
		p.logger.Warnf("fire_and_forget to %s failed: %v", dst, err)
	}
}

// RPCRequest sends payload to dst as a tracked outbound request with the
// given timeout and retry flag, inserting it into the pending table.
func (p *Port) RPCRequest(dst types.NodeID, payload interface{}, timeout time.Duration, retry bool) (int, error) {
	raw, err := types.BuildBody(payload, nil, nil)
	if err != nil {
		return 0, err
	}
	id, err := p.Send(dst, nil, payload)
	if err != nil {
		return 0, err
	}
	p.pending.Insert(types.PendingRequest{
		ID:       id,
		Dest:     dst,
		Payload:  raw,
		Timeout:  timeout,
		IssuedAt: time.Now(),
		Retry:    retry,
	})
	if p.metrics != nil {
		p.metrics.SetPending(p.pending.Len())
	}
	return id, nil
}

// RPCRequestWithRetry is RPCRequest with retry always set.
func (p *Port) RPCRequestWithRetry(dst types.NodeID, payload interface{}, timeout time.Duration) (int, error) {
	return p.RPCRequest(dst, payload, timeout, true)
}

// RPCReply replies to an inbound envelope with payload, copying its msg_id
// into in_reply_to.
func (p *Port) RPCReply(incoming types.Envelope, payload interface{}) (int, error) {
	inReplyTo, ok := incoming.MsgID()
	var ptr *int
	if ok {
		ptr = &inReplyTo
	}
	return p.Send(incoming.Src, ptr, payload)
}

// RPCMarkCompleted removes the pending entry referenced by incoming's
// in_reply_to, if any. It is always safe to call, including on envelopes
// with no in_reply_to or one that is no longer tracked.
func (p *Port) RPCMarkCompleted(incoming types.Envelope) {
	id, ok := incoming.InReplyTo()
	if !ok {
		return
	}
	if p.pending.Remove(id) && p.metrics != nil {
		p.metrics.SetPending(p.pending.Len())
	}
}

// RPCStillPending reports whether incoming's in_reply_to still names a
// tracked request. Handlers guard late-reply branches with this so a
// response to an already-expired or already-completed request is
// discarded instead of corrupting state (§4.3 rationale).
func (p *Port) RPCStillPending(incoming types.Envelope) bool {
	id, ok := incoming.InReplyTo()
	if !ok {
		return false
	}
	return p.pending.Has(id)
}

// Pending exposes the underlying table for the tender.
func (p *Port) Pending() *PendingTable {
	return p.pending
}

// NodeID returns the id this port sends envelopes as.
func (p *Port) NodeID() types.NodeID {
	return p.nodeID
}
