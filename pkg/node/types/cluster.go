package types

// ClusterState is immutable after the handshake: this node's identifier and
// the set of peer identifiers (including itself). It is freely shared with
// the handler; nothing in the runtime mutates it after construction.
type ClusterState struct {
	NodeID  NodeID
	NodeIDs []NodeID
}

// NewClusterState builds cluster state from the init payload.
func NewClusterState(init InitPayload) ClusterState {
	ids := make([]NodeID, len(init.NodeIDs))
	copy(ids, init.NodeIDs)
	return ClusterState{
		NodeID:  init.NodeID,
		NodeIDs: ids,
	}
}

// Peers returns every node id other than this node's own.
func (c ClusterState) Peers() []NodeID {
	peers := make([]NodeID, 0, len(c.NodeIDs))
	for _, id := range c.NodeIDs {
		if id != c.NodeID {
			peers = append(peers, id)
		}
	}
	return peers
}
