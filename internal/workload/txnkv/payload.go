package txnkv

import (
	"encoding/json"
	"fmt"
)

// op is one transaction operation, wire-encoded as the 3-element array
// ["r", key, value] or ["w", key, value]. A read with no prior write
// resolves to a null value.
type op struct {
	Kind  string
	Key   int
	Value *int
}

func (o op) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{o.Kind, o.Key, o.Value})
}

func (o *op) UnmarshalJSON(b []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("maelnode: txn op expects a 3-element array, got %d", len(arr))
	}
	if err := json.Unmarshal(arr[0], &o.Kind); err != nil {
		return err
	}
	if err := json.Unmarshal(arr[1], &o.Key); err != nil {
		return err
	}
	var value *int
	if err := json.Unmarshal(arr[2], &value); err != nil {
		return err
	}
	o.Value = value
	return nil
}

type txnPayload struct {
	Type string `json:"type"`
	Txn  []op   `json:"txn"`
}

type replicatePayload struct {
	Type string `json:"type"`
	Ops  []op   `json:"ops"`
}

type replicateOk struct {
	Type string `json:"type"`
}
