package txnkv_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jabolina/maelnode/internal/workload/txnkv"
	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/definition"
)

func TestTxnKV_WriteThenReadReturnsValue(t *testing.T) {
	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":2,"txn":[["w",5,10]]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":3,"txn":[["r",5,null]]}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	if err := node.Run(cfg, txnkv.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[2], `["r",5,10]`) {
		t.Fatalf("expected read to reflect the prior write, got %q", lines[2])
	}
}

func TestTxnKV_ReadOfUnknownKeyIsNull(t *testing.T) {
	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":2,"txn":[["r",9,null]]}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	if err := node.Run(cfg, txnkv.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if !strings.Contains(lines[1], `["r",9,null]`) {
		t.Fatalf("expected null value for unknown key, got %q", lines[1])
	}
}

func TestTxnKV_MultiNodeReplicatesWrites(t *testing.T) {
	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1","n2"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"txn","msg_id":2,"txn":[["w",1,2]]}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	if err := node.Run(cfg, txnkv.New); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected init_ok, a replicate to n2, and txn_ok, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[1], `"type":"replicate"`) || !strings.Contains(lines[1], `"dest":"n2"`) {
		t.Fatalf("expected a replicate sent to n2, got %q", lines[1])
	}
}
