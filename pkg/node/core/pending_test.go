package core

import (
	"testing"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

func TestPendingTable_ExpireBefore(t *testing.T) {
	table := NewPendingTable()
	now := time.Now()

	table.Insert(types.PendingRequest{ID: 1, Dest: "n2", Timeout: 10 * time.Millisecond, IssuedAt: now.Add(-20 * time.Millisecond)})
	table.Insert(types.PendingRequest{ID: 2, Dest: "n3", Timeout: 10 * time.Second, IssuedAt: now})

	expired, next := table.ExpireBefore(now)
	if len(expired) != 1 || expired[0].ID != 1 {
		t.Fatalf("expected entry 1 to expire, got %+v", expired)
	}
	if table.Has(1) {
		t.Fatalf("expired entry should have been removed")
	}
	if !table.Has(2) {
		t.Fatalf("entry 2 should still be pending")
	}
	if next <= 0 || next > 10*time.Second {
		t.Fatalf("unexpected next deadline: %v", next)
	}
}

func TestPendingTable_RemoveIsIdempotent(t *testing.T) {
	table := NewPendingTable()
	table.Insert(types.PendingRequest{ID: 1, Timeout: time.Second, IssuedAt: time.Now()})

	if !table.Remove(1) {
		t.Fatalf("expected first remove to report success")
	}
	if table.Remove(1) {
		t.Fatalf("expected second remove to be a no-op")
	}
	if table.Remove(999) {
		t.Fatalf("removing an absent key must not error or report success")
	}
}

func TestPendingTable_ExpireBeforeWithNoEntries(t *testing.T) {
	table := NewPendingTable()
	expired, next := table.ExpireBefore(time.Now())
	if len(expired) != 0 {
		t.Fatalf("expected no expired entries, got %+v", expired)
	}
	if next >= 0 {
		t.Fatalf("expected a negative (no-deadline) hint with nothing pending, got %v", next)
	}
}
