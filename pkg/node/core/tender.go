package core

import (
	"encoding/json"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Tender periodically inspects the pending table, evicts timed-out
// entries, and re-issues the ones flagged retryable under a fresh id.
// There is no teacher analogue (the multicast protocol has no RPC
// timeout concept); it is written in the teacher's deadline-scanning idiom
// generalized from PendingTable.ExpireBefore.
type Tender struct {
	port    *Port
	metrics *Metrics
	logger  types.Logger
}

// NewTender builds a tender operating over port.
func NewTender(port *Port, metrics *Metrics, logger types.Logger) *Tender {
	return &Tender{port: port, metrics: metrics, logger: logger}
}

// Tick runs one tender pass at instant now: expire, re-issue retryable
// entries, and return the expired set (for on_rpc_timeout) plus the
// earliest remaining deadline among what's left, re-issued entries
// included. The deadline is negative when the pending table is empty; see
// PendingTable.ExpireBefore.
func (t *Tender) Tick(now time.Time) ([]types.PendingRequest, time.Duration) {
	expired, nextDeadline := t.port.pending.ExpireBefore(now)

	for _, req := range expired {
		if t.metrics != nil {
			t.metrics.ObserveTimeout()
		}
		if !req.Retry {
			continue
		}

		var payload json.RawMessage = req.Payload
		newID, err := t.port.RPCRequestWithRetry(req.Dest, payload, req.Timeout)
		if err != nil {
			t.logger.Errorf("tender: failed re-issuing request %d to %s: %v", req.ID, req.Dest, err)
			continue
		}
		if t.metrics != nil {
			t.metrics.ObserveRetry()
		}
		if nextDeadline < 0 || req.Timeout < nextDeadline {
			nextDeadline = req.Timeout
		}
		t.logger.Debugf("tender: re-issued %d as %d to %s", req.ID, newID, req.Dest)
	}

	if t.metrics != nil {
		t.metrics.SetPending(t.port.pending.Len())
	}

	return expired, nextDeadline
}
