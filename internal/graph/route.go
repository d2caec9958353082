package graph

import "github.com/samber/lo"

// Route is an ordered sequence of roads from an origin to a destination.
// It is consumed one road at a time as the vehicle completes each segment.
type Route struct {
	roads  []int
	Length float64 // total length in metres at construction
}

func newRoute(g *Graph, roads []int) *Route {
	return &Route{
		roads:  roads,
		Length: lo.SumBy(roads, func(r int) float64 { return g.roads[r].Length }),
	}
}

// Next pops the next road off the front of the route.
func (r *Route) Next() (int, bool) {
	if len(r.roads) == 0 {
		return 0, false
	}
	next := r.roads[0]
	r.roads = r.roads[1:]
	return next, true
}

// Len returns the number of roads still to travel.
func (r *Route) Len() int { return len(r.roads) }

// Roads returns the remaining roads.
func (r *Route) Roads() []int {
	out := make([]int, len(r.roads))
	copy(out, r.roads)
	return out
}
