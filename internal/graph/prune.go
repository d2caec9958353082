package graph

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// largestComponent returns the node IDs of the largest strongly connected
// component of data. Equal-sized components are resolved in favour of the
// one holding the earliest node in input order.
func largestComponent(data GraphData) map[NodeID]bool {
	index := make(map[NodeID]int64, len(data.Nodes))
	dg := simple.NewDirectedGraph()
	for i, n := range data.Nodes {
		index[n.ID] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for _, e := range data.Edges {
		u, v := index[e.U], index[e.V]
		if u == v || dg.HasEdgeFromTo(u, v) {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	}

	var best []int64
	bestFirst := int64(math.MaxInt64)
	for _, scc := range topo.TarjanSCC(dg) {
		first := int64(math.MaxInt64)
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
			first = min(first, n.ID())
		}
		if len(ids) > len(best) || (len(ids) == len(best) && first < bestFirst) {
			best, bestFirst = ids, first
		}
	}

	keep := make(map[NodeID]bool, len(best))
	for _, id := range best {
		keep[data.Nodes[id].ID] = true
	}
	return keep
}
