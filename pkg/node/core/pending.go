package core

import (
	"sync"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// PendingTable maps an outbound request id to its retry record. Mirrors the
// teacher's mutex-guarded observers map in pkg/mcast/core/peer.go
// (Peer.observers), generalized from "channel to notify" to "record to
// retry or expire".
type PendingTable struct {
	mu      sync.Mutex
	entries map[int]types.PendingRequest
}

// NewPendingTable returns an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[int]types.PendingRequest)}
}

// Insert adds a new pending request. Keys are never reused by construction:
// the caller always supplies a freshly allocated sequence id.
func (t *PendingTable) Insert(req types.PendingRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[req.ID] = req
}

// Remove deletes the entry for id if present, reporting whether it was.
func (t *PendingTable) Remove(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// Has reports whether id is currently tracked.
func (t *PendingTable) Has(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// Len reports how many requests are currently pending.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// ExpireBefore removes and returns every entry whose deadline has passed at
// instant now, alongside the minimum remaining deadline across what is
// left. nextDeadline is negative when no entry remains pending: callers
// must treat that as "no deadline to report", never as "due right now",
// or an idle table makes the dispatcher spin. Mirrors the tender's
// partition-then-remove pass from §4.4.
func (t *PendingTable) ExpireBefore(now time.Time) (expired []types.PendingRequest, nextDeadline time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	nextDeadline = -1
	for id, req := range t.entries {
		if req.Expired(now) {
			expired = append(expired, req)
			delete(t.entries, id)
			continue
		}
		remaining := req.Remaining(now)
		if nextDeadline < 0 || remaining < nextDeadline {
			nextDeadline = remaining
		}
	}
	return expired, nextDeadline
}
