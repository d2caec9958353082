package graph

import (
	"container/heap"
	"math"
)

// ShortestRoute runs Dijkstra from source to destination over road weights
// (length / speed limit). It is computed fresh on every call so weight changes
// between calls are honoured. ok is false when destination is unreachable or
// equal to source.
func (g *Graph) ShortestRoute(source, destination int) (*Route, bool) {
	if source == destination {
		return nil, false
	}

	n := len(g.nodes)
	cost := make([]float64, n)
	parent := make([]int, n) // road index used to reach the node
	visited := make([]bool, n)
	for i := range cost {
		cost[i] = math.Inf(1)
		parent[i] = -1
	}
	cost[source] = 0

	pq := &priorityQueue{}
	heap.Push(pq, &item{node: source, priority: 0})

	for pq.Len() > 0 {
		u := heap.Pop(pq).(*item).node
		if visited[u] {
			continue
		}
		if u == destination {
			break
		}
		visited[u] = true
		for _, ri := range g.nodes[u].Out {
			r := g.roads[ri]
			if visited[r.To] {
				continue
			}
			if alt := cost[u] + r.Weight; alt < cost[r.To] {
				cost[r.To] = alt
				parent[r.To] = ri
				heap.Push(pq, &item{node: r.To, priority: alt})
			}
		}
	}

	if math.IsInf(cost[destination], 1) {
		return nil, false
	}

	var roads []int
	for v := destination; v != source; v = g.roads[parent[v]].From {
		roads = append(roads, parent[v])
	}
	for i, j := 0, len(roads)-1; i < j; i, j = i+1, j-1 {
		roads[i], roads[j] = roads[j], roads[i]
	}
	return newRoute(g, roads), true
}

// ---------- internal PQ ----------
type item struct {
	node     int
	priority float64
}
type priorityQueue []*item

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(*item)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}
