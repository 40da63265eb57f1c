// Package types holds the wire data model shared by the node runtime and
// every workload built on top of it: envelopes, cluster state, pending
// requests and timer registrations.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingDiscriminator is returned when a body carries no "type" field.
var ErrMissingDiscriminator = errors.New("maelnode: body has no \"type\" discriminator")

// NodeID identifies a node or client on the wire. The runtime treats it as
// an opaque, non-empty string; the harness's "n<k>"/"c<k>" shape is not
// interpreted here.
type NodeID = string

// Envelope is one JSON object exchanged on the wire: source, destination,
// and a body whose discriminant and flattened fields are carried as raw
// JSON so a generic decoder never has to know every workload's payloads.
type Envelope struct {
	Src  NodeID          `json:"src"`
	Dest NodeID          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

// bodyHeader is the subset of body fields the runtime itself interprets.
// Every other field of the body stays inside Envelope.Body for the handler
// to decode into its own payload struct.
type bodyHeader struct {
	Type      string `json:"type"`
	MsgID     *int   `json:"msg_id,omitempty"`
	InReplyTo *int   `json:"in_reply_to,omitempty"`
}

// Type returns the body's "type" discriminator.
func (e Envelope) Type() (string, error) {
	var h bodyHeader
	if err := json.Unmarshal(e.Body, &h); err != nil {
		return "", fmt.Errorf("maelnode: decoding body header: %w", err)
	}
	if h.Type == "" {
		return "", ErrMissingDiscriminator
	}
	return h.Type, nil
}

// MsgID returns the body's msg_id, and whether one was present.
func (e Envelope) MsgID() (int, bool) {
	var h bodyHeader
	if err := json.Unmarshal(e.Body, &h); err != nil {
		return 0, false
	}
	if h.MsgID == nil {
		return 0, false
	}
	return *h.MsgID, true
}

// InReplyTo returns the body's in_reply_to, and whether one was present.
func (e Envelope) InReplyTo() (int, bool) {
	var h bodyHeader
	if err := json.Unmarshal(e.Body, &h); err != nil {
		return 0, false
	}
	if h.InReplyTo == nil {
		return 0, false
	}
	return *h.InReplyTo, true
}

// Unmarshal decodes the body's flattened payload fields into v, which
// should be a pointer to a workload-specific payload struct.
func (e Envelope) Unmarshal(v interface{}) error {
	return json.Unmarshal(e.Body, v)
}

// BuildBody merges a payload (already carrying its own "type" field via
// struct tags) with msg_id/in_reply_to and returns the resulting raw body.
// This is the flattening step the spec requires: the discriminator and the
// variant-specific fields live together in one flat object.
func BuildBody(payload interface{}, msgID *int, inReplyTo *int) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("maelnode: marshaling payload: %w", err)
	}

	merged := make(map[string]interface{})
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("maelnode: flattening payload: %w", err)
	}
	if msgID != nil {
		merged["msg_id"] = *msgID
	}
	if inReplyTo != nil {
		merged["in_reply_to"] = *inReplyTo
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("maelnode: marshaling merged body: %w", err)
	}
	return out, nil
}
