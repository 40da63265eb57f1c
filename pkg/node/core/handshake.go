package core

import (
	"fmt"
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Handshake reads exactly one envelope from dec, decodes it as init, builds
// cluster state, invokes initFn to construct the handler while collecting
// timer registrations, and replies with init_ok before returning control
// to the dispatcher. Mirrors §4.2 step by step.
func Handshake(dec *Decoder, enc *Encoder, metrics *Metrics, logger types.Logger, initFn InitFunc) (types.ClusterState, *Port, Handler, *TimerRegistry, error) {
	env, err := dec.Next()
	if err != nil {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: reading init message: %w", err)
	}

	kind, err := env.Type()
	if err != nil {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: decoding init message: %w", err)
	}
	if kind != "init" {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: expected init message, got %q", kind)
	}

	var payload types.InitPayload
	if err := env.Unmarshal(&payload); err != nil {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: decoding init payload: %w", err)
	}

	cluster := types.NewClusterState(payload)
	port := NewPort(cluster.NodeID, enc, metrics, logger)

	registry := NewTimerRegistry()
	now := time.Now()
	handler, err := initFn(cluster, timerRegistrarAt{registry: registry, at: now})
	if err != nil {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: handler init: %w", err)
	}

	msgID, ok := env.MsgID()
	var inReplyTo *int
	if ok {
		inReplyTo = &msgID
	}
	if _, err := port.Send(env.Src, inReplyTo, types.NewInitOk()); err != nil {
		return types.ClusterState{}, nil, nil, nil, fmt.Errorf("maelnode: sending init_ok: %w", err)
	}

	return cluster, port, handler, registry, nil
}
