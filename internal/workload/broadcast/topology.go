package broadcast

import "github.com/jabolina/maelnode/pkg/node/types"

// ComputeTopology builds a fixed two-root tree over nodeIDs: the first two
// ids become co-roots linked to each other, and every remaining id attaches
// to whichever root owns its half of the remainder. A cluster of size one
// has no neighbours; a cluster of size two is just the two co-roots.
// Ignoring any topology message the harness sends keeps propagation shape
// deterministic and independent of harness-assigned topologies.
func ComputeTopology(nodeIDs []types.NodeID) map[types.NodeID][]types.NodeID {
	topology := make(map[types.NodeID][]types.NodeID, len(nodeIDs))
	for _, n := range nodeIDs {
		topology[n] = nil
	}
	if len(nodeIDs) < 2 {
		return topology
	}

	link := func(a, b types.NodeID) {
		topology[a] = append(topology[a], b)
		topology[b] = append(topology[b], a)
	}

	root1, root2 := nodeIDs[0], nodeIDs[1]
	link(root1, root2)

	rest := nodeIDs[2:]
	mid := (len(rest) + 1) / 2
	for _, n := range rest[:mid] {
		link(root1, n)
	}
	for _, n := range rest[mid:] {
		link(root2, n)
	}
	return topology
}
