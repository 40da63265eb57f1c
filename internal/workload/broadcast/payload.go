package broadcast

import "errors"

// ErrMessageAndBatch is returned when an inbound broadcast body carries both
// "message" and "batch": the two fields are mutually exclusive on the wire,
// and receiving both is treated as a fatal decode error rather than an
// ambiguity to resolve silently.
var ErrMessageAndBatch = errors.New("maelnode: broadcast body carries both message and batch")

// broadcastPayload is the union of the single-message and batched wire
// shapes. At most one of Message/Batch may be set on any given envelope.
type broadcastPayload struct {
	Type    string `json:"type"`
	Message *int   `json:"message,omitempty"`
	Batch   []int  `json:"batch,omitempty"`
}

func (p broadcastPayload) validate() error {
	if p.Message != nil && p.Batch != nil {
		return ErrMessageAndBatch
	}
	return nil
}

type broadcastOk struct {
	Type string `json:"type"`
}

type readOk struct {
	Type     string `json:"type"`
	Messages []int  `json:"messages"`
}

type topologyPayload struct {
	Type     string              `json:"type"`
	Topology map[string][]string `json:"topology"`
}

type topologyOk struct {
	Type string `json:"type"`
}

type gossipPayload struct {
	Type     string `json:"type"`
	Messages []int  `json:"messages"`
}
