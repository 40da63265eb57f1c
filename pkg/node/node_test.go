package node_test

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/definition"
	"github.com/jabolina/maelnode/pkg/node/types"
)

type echoPayload struct {
	Type string `json:"type"`
	Echo string `json:"echo"`
}

func TestRun_EchoScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	input := strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":"hi"}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg := node.DefaultConfig(
		node.WithStdin(strings.NewReader(input)),
		node.WithStdout(&out),
		node.WithLogger(definition.NoopLogger{}),
	)

	err := node.Run(cfg, func(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
		return newTestEchoHandler(), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected init_ok + echo_ok, got %d lines: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "init_ok") {
		t.Fatalf("expected first line to be init_ok, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "echo_ok") || !strings.Contains(lines[1], `"echo":"hi"`) {
		t.Fatalf("expected second line to echo back \"hi\", got %q", lines[1])
	}
}

type testEchoHandler struct{}

func newTestEchoHandler() *testEchoHandler { return &testEchoHandler{} }

func (*testEchoHandler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}
	if kind != "echo" {
		return nil
	}
	var payload struct {
		Echo string `json:"echo"`
	}
	if err := incoming.Unmarshal(&payload); err != nil {
		return err
	}
	_, err = io.RPCReply(incoming, echoPayload{Type: "echo_ok", Echo: payload.Echo})
	return err
}

func (*testEchoHandler) OnTimer(types.ClusterState, *node.Port, types.TimerTag) error { return nil }
func (*testEchoHandler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}
