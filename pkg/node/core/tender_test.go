package core

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/jabolina/maelnode/pkg/node/definition"
)

func TestTender_ReissuesRetryableTimeouts(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)
	tender := NewTender(port, nil, definition.NoopLogger{})

	payload := map[string]interface{}{"type": "broadcast", "message": 7}
	issuedAt := time.Now().Add(-20 * time.Millisecond)
	id, err := port.RPCRequest("n2", payload, 10*time.Millisecond, true)
	if err != nil {
		t.Fatalf("rpc request: %v", err)
	}
	// backdate the entry so the tender sees it as expired.
	port.pending.mu.Lock()
	entry := port.pending.entries[id]
	entry.IssuedAt = issuedAt
	port.pending.entries[id] = entry
	port.pending.mu.Unlock()

	expired, _ := tender.Tick(time.Now())
	if len(expired) != 1 || expired[0].ID != id {
		t.Fatalf("expected original request to expire, got %+v", expired)
	}
	if port.pending.Len() != 1 {
		t.Fatalf("expected exactly one re-issued pending entry, got %d", port.pending.Len())
	}
	if port.pending.Has(id) {
		t.Fatalf("original id must not still be tracked")
	}

	lines := splitLines(buf.String())
	if len(lines) != 2 {
		t.Fatalf("expected original send + reissue, got %d lines: %q", len(lines), buf.String())
	}
	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal reissue: %v", err)
	}
	body := second["body"].(map[string]interface{})
	if body["message"].(float64) != 7 {
		t.Fatalf("expected reissue to carry the same payload, got %v", body)
	}
	if int(body["msg_id"].(float64)) == id {
		t.Fatalf("expected a fresh msg_id on reissue")
	}
}

func TestTender_NonRetryableTimeoutIsNotReissued(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)
	tender := NewTender(port, nil, definition.NoopLogger{})

	id, err := port.RPCRequest("n2", map[string]interface{}{"type": "read"}, 10*time.Millisecond, false)
	if err != nil {
		t.Fatalf("rpc request: %v", err)
	}
	port.pending.mu.Lock()
	entry := port.pending.entries[id]
	entry.IssuedAt = time.Now().Add(-time.Second)
	port.pending.entries[id] = entry
	port.pending.mu.Unlock()

	expired, _ := tender.Tick(time.Now())
	if len(expired) != 1 {
		t.Fatalf("expected the entry to expire, got %+v", expired)
	}
	if port.pending.Len() != 0 {
		t.Fatalf("non-retryable timeout must not leave a new entry")
	}
	if len(splitLines(buf.String())) != 1 {
		t.Fatalf("non-retryable timeout must not write a new envelope")
	}
}

func splitLines(s string) []string {
	var lines []string
	for _, l := range bytes.Split([]byte(s), []byte("\n")) {
		if len(l) > 0 {
			lines = append(lines, string(l))
		}
	}
	return lines
}
