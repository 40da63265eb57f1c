// Package node wires the wire codec, handshake, and dispatcher into a
// single runnable node, the way the teacher's top-level mcast package wires
// Unity around core.Peer / core.Transport (pkg/mcast/protocol.go).
package node

import (
	"io"
	"os"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Config collects the node's construction-time dependencies. There are no
// CLI flags or environment variables (process argument parsing is an
// explicit Non-goal); Config is built programmatically with functional
// options, mirroring the teacher's mcast.DefaultConfiguration(name) /
// BaseConfiguration pattern (pkg/mcast/protocol.go).
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Logger types.Logger
}

// Option customizes a Config produced by DefaultConfig.
type Option func(*Config)

// WithStdin overrides the input port (tests use a strings.Reader here).
func WithStdin(r io.Reader) Option { return func(c *Config) { c.Stdin = r } }

// WithStdout overrides the output port (tests use a bytes.Buffer here).
func WithStdout(w io.Writer) Option { return func(c *Config) { c.Stdout = w } }

// WithLogger overrides the diagnostic logger.
func WithLogger(l types.Logger) Option { return func(c *Config) { c.Logger = l } }

// DefaultConfig returns a Config reading/writing the process's real
// stdin/stdout. Logger is left nil unless WithLogger is given: Run builds
// the default logrus-backed logger once the node id is known from the
// handshake, so every log line is tagged with the real id from the start.
func DefaultConfig(opts ...Option) Config {
	cfg := Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
