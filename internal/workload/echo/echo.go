// Package echo implements the pure echo reference workload: every echo
// message is answered with echo_ok carrying the same value back.
package echo

import (
	"github.com/jabolina/maelnode/pkg/node"
	"github.com/jabolina/maelnode/pkg/node/types"
)

type payload struct {
	Type string `json:"type"`
	Echo string `json:"echo"`
}

// Handler is the echo workload's state machine. It carries no state: every
// reply is derived entirely from the inbound envelope.
type Handler struct{}

// New constructs the echo handler. It registers no timers.
func New(cluster types.ClusterState, timers node.Timers) (node.Handler, error) {
	return &Handler{}, nil
}

func (h *Handler) OnMessage(cluster types.ClusterState, io *node.Port, incoming types.Envelope) error {
	kind, err := incoming.Type()
	if err != nil {
		return err
	}
	if kind != "echo" {
		return nil
	}

	var in payload
	if err := incoming.Unmarshal(&in); err != nil {
		return err
	}
	_, err = io.RPCReply(incoming, payload{Type: "echo_ok", Echo: in.Echo})
	return err
}

func (h *Handler) OnTimer(types.ClusterState, *node.Port, types.TimerTag) error { return nil }

func (h *Handler) OnRPCTimeout(types.ClusterState, *node.Port, types.PendingRequest) error {
	return nil
}
