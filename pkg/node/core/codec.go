package core

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// Decoder reads a stream of JSON-encoded envelopes from an input port. Per
// §4.1 the harness separates values by whitespace (newline in practice);
// streaming json.Decoder.Decode handles either framing without assuming
// one value per Read.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for envelope decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the next envelope. It returns io.EOF when the input is
// exhausted; any other error is a fatal decode failure per §7.
func (d *Decoder) Next() (types.Envelope, error) {
	var env types.Envelope
	if err := d.dec.Decode(&env); err != nil {
		if err == io.EOF {
			return types.Envelope{}, io.EOF
		}
		return types.Envelope{}, fmt.Errorf("maelnode: decoding envelope: %w", err)
	}
	return env, nil
}

// Encoder writes line-framed JSON envelopes to an output port under a
// single-writer discipline: every Write call serializes one envelope,
// appends a newline, and flushes before returning, and concurrent callers
// never interleave their output. Mirrors the teacher's
// ReliableTransport.apply marshal-then-write shape
// (pkg/mcast/core/transport.go), generalized from a network send to a
// flushed stdio write per §4.1/§9.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder wraps w for envelope encoding.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Write serializes env as a single JSON object, appends '\n', and flushes
// if the writer supports it.
func (e *Encoder) Write(env types.Envelope) error {
	buf, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("maelnode: marshaling envelope: %w", err)
	}
	buf = append(buf, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("maelnode: writing envelope: %w", err)
	}
	if f, ok := e.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("maelnode: flushing output: %w", err)
		}
	}
	return nil
}
