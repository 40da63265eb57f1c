package kafka

import (
	"encoding/json"
	"fmt"
)

// record is one (offset, message) pair. It marshals as the two-element JSON
// array the harness expects, not an object.
type record [2]int

// forwardedFor threads the original requester's node and msg_id through a
// leader-forwarded send, so the leader's reply can be routed back to the
// client directly instead of bouncing through the forwarding follower.
type forwardedFor struct {
	Dest  string
	MsgID int
}

func (f forwardedFor) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{f.Dest, f.MsgID})
}

func (f *forwardedFor) UnmarshalJSON(b []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("maelnode: forwarded_for expects a 2-element array, got %d", len(arr))
	}
	if err := json.Unmarshal(arr[0], &f.Dest); err != nil {
		return err
	}
	return json.Unmarshal(arr[1], &f.MsgID)
}

type sendPayload struct {
	Type         string        `json:"type"`
	Key          string        `json:"key"`
	Msg          int           `json:"msg"`
	ForwardedFor *forwardedFor `json:"forwarded_for,omitempty"`
}

type sendOkPayload struct {
	Type         string        `json:"type"`
	Offset       int           `json:"offset"`
	ForwardedFor *forwardedFor `json:"forwarded_for,omitempty"`
}

type pollPayload struct {
	Type    string         `json:"type"`
	Offsets map[string]int `json:"offsets"`
}

type pollOkPayload struct {
	Type string              `json:"type"`
	Msgs map[string][]record `json:"msgs"`
}

type commitOffsetsPayload struct {
	Type    string         `json:"type"`
	Offsets map[string]int `json:"offsets"`
}

type commitOffsetsOk struct {
	Type string `json:"type"`
}

type listCommittedOffsetsPayload struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type listCommittedOffsetsOk struct {
	Type    string         `json:"type"`
	Offsets map[string]int `json:"offsets"`
}

type replicaPollPayload struct {
	Type    string         `json:"type"`
	Offsets map[string]int `json:"offsets"`
}

type replicaPollOk struct {
	Type string              `json:"type"`
	Msgs map[string][]record `json:"msgs"`
}
