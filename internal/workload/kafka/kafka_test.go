package kafka_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jabolina/maelnode/internal/workload/kafka"
	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/definition"
)

func TestKafka_SingleNodeSendPollCommit(t *testing.T) {
	input := strings.Join([]string{
		`{"src":"c1","dest":"n0","body":{"type":"init","msg_id":1,"node_id":"n0","node_ids":["n0"]}}`,
		`{"src":"c1","dest":"n0","body":{"type":"send","msg_id":2,"key":"6","msg":100}}`,
		`{"src":"c1","dest":"n0","body":{"type":"send","msg_id":3,"key":"6","msg":200}}`,
		`{"src":"c1","dest":"n0","body":{"type":"poll","msg_id":4,"offsets":{"6":0}}}`,
		`{"src":"c1","dest":"n0","body":{"type":"commit_offsets","msg_id":5,"offsets":{"6":1}}}`,
		`{"src":"c1","dest":"n0","body":{"type":"list_committed_offsets","msg_id":6,"keys":["6"]}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	if err := node.Run(cfg, kafka.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[1], `"offset":0`) {
		t.Fatalf("expected first send_ok offset 0, got %q", lines[1])
	}
	if !strings.Contains(lines[2], `"offset":1`) {
		t.Fatalf("expected second send_ok offset 1, got %q", lines[2])
	}
	if !strings.Contains(lines[3], `[0,100]`) || !strings.Contains(lines[3], `[1,200]`) {
		t.Fatalf("expected poll_ok with both records, got %q", lines[3])
	}
	if !strings.Contains(lines[5], `"6":1`) {
		t.Fatalf("expected list_committed_offsets_ok to echo committed offset, got %q", lines[5])
	}
}

func TestKafka_MultiNodeForwardsToLeader(t *testing.T) {
	// key "1" mod 2 nodes = leader index 1 (n1); n0 must forward.
	input := strings.Join([]string{
		`{"src":"c1","dest":"n0","body":{"type":"init","msg_id":1,"node_id":"n0","node_ids":["n0","n1"]}}`,
		`{"src":"c1","dest":"n0","body":{"type":"send","msg_id":2,"key":"1","msg":42}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	if err := node.Run(cfg, kafka.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected init_ok + a forwarded send, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[1], `"dest":"n1"`) || !strings.Contains(lines[1], `"type":"send"`) {
		t.Fatalf("expected a forwarded send to n1, got %q", lines[1])
	}
	if !strings.Contains(lines[1], `"forwarded_for":["c1",2]`) {
		t.Fatalf("expected forwarded_for to carry the original requester, got %q", lines[1])
	}
}
