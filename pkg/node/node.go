package node

import (
	"fmt"

	"github.com/jabolina/maelnode/pkg/node/core"
	"github.com/jabolina/maelnode/pkg/node/definition"
)

// Handler is re-exported so workload packages only need to import node.
type Handler = core.Handler

// Timers is re-exported so workload init functions only need to import node.
type Timers = core.Timers

// InitFunc is re-exported so workload packages only need to import node.
type InitFunc = core.InitFunc

// Port is re-exported so workload packages only need to import node.
type Port = core.Port

// Run performs the handshake and then drives the dispatch loop to
// completion. It returns nil on clean input EOF and a non-nil error on any
// fatal decode or handler failure (§7); main is responsible for turning
// that into a non-zero exit code.
func Run(cfg Config, initFn InitFunc) error {
	dec := core.NewDecoder(cfg.Stdin)
	enc := core.NewEncoder(cfg.Stdout)

	handshakeLogger := cfg.Logger
	if handshakeLogger == nil {
		handshakeLogger = definition.NewLogrusLogger("init")
	}

	cluster, port, handler, timers, err := core.Handshake(dec, enc, nil, handshakeLogger, initFn)
	if err != nil {
		return err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = definition.NewLogrusLogger(cluster.NodeID)
	}
	metrics := core.NewMetrics(cluster.NodeID)
	port.AttachMetrics(metrics)
	port.AttachLogger(logger)

	dispatcher := core.NewDispatcher(cluster, port, handler, timers, logger, metrics, core.InvokerInstance())
	if err := dispatcher.Run(dec); err != nil {
		return fmt.Errorf("maelnode: %w", err)
	}
	return nil
}
