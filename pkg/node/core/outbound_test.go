package core

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/jabolina/maelnode/pkg/node/definition"
	"github.com/jabolina/maelnode/pkg/node/types"
)

type echoOkPayload struct {
	Type string `json:"type"`
	Echo string `json:"echo"`
}

func newTestPort(buf *bytes.Buffer) *Port {
	enc := NewEncoder(buf)
	return NewPort("n1", enc, nil, definition.NoopLogger{})
}

func TestPort_SendAllocatesMonotonicIDs(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)

	id0, err := port.Send("c1", nil, echoOkPayload{Type: "echo_ok", Echo: "a"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	id1, err := port.Send("c1", nil, echoOkPayload{Type: "echo_ok", Echo: "b"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if id0 != 0 {
		t.Fatalf("expected first allocated id to be 0, got %d", id0)
	}
	if id1 != id0+1 {
		t.Fatalf("expected strictly increasing ids, got %d then %d", id0, id1)
	}
}

func TestPort_RPCReplyCopiesMsgIDIntoInReplyTo(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)

	incoming := types.Envelope{Src: "c1", Dest: "n1", Body: []byte(`{"type":"echo","msg_id":7,"echo":"hi"}`)}
	if _, err := port.RPCReply(incoming, echoOkPayload{Type: "echo_ok", Echo: "hi"}); err != nil {
		t.Fatalf("rpc reply: %v", err)
	}

	var out types.Envelope
	if err := json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	inReplyTo, ok := out.InReplyTo()
	if !ok || inReplyTo != 7 {
		t.Fatalf("expected in_reply_to=7, got %v (ok=%v)", inReplyTo, ok)
	}
}

func TestPort_RPCMarkCompleted_NoOpWhenAbsentOrUntracked(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)

	noInReplyTo := types.Envelope{Body: []byte(`{"type":"broadcast_ok"}`)}
	port.RPCMarkCompleted(noInReplyTo) // must not panic

	untracked := types.Envelope{Body: []byte(`{"type":"broadcast_ok","in_reply_to":999}`)}
	port.RPCMarkCompleted(untracked) // must not panic
}

func TestPort_RPCMarkCompleted_IsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	port := newTestPort(&buf)

	id, err := port.RPCRequestWithRetry("n2", echoOkPayload{Type: "broadcast", Echo: "x"}, time.Second)
	if err != nil {
		t.Fatalf("rpc request: %v", err)
	}

	replyBody, _ := json.Marshal(map[string]interface{}{"type": "broadcast_ok", "in_reply_to": id})
	reply := types.Envelope{Body: replyBody}

	if !port.RPCStillPending(reply) {
		t.Fatalf("expected request to still be pending before completion")
	}
	port.RPCMarkCompleted(reply)
	if port.RPCStillPending(reply) {
		t.Fatalf("expected request to be removed after completion")
	}
	port.RPCMarkCompleted(reply) // second call must be a no-op, not an error
}
