package graph

import (
	"fmt"

	"github.com/iti/rngstream"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
)

// DestinationSelector picks the next trip destination for a vehicle.
type DestinationSelector interface {
	NextDestination(rng *rngstream.RngStream) int
}

// Destinations is a weighted pool of intersections. An intersection added with
// weight w is w times as likely to be drawn as one with weight 1.
type Destinations struct {
	pool []int
}

// UniformDestinations returns a pool holding every intersection once.
func UniformDestinations(g *Graph) *Destinations {
	return &Destinations{pool: lo.Range(len(g.nodes))}
}

// Add appends node to the pool weight times.
func (d *Destinations) Add(node, weight int) {
	for _i := 0; _i < weight; _i++ {
		d.pool = append(d.pool, node)
	}
}

// Len returns the pool size including weights.
func (d *Destinations) Len() int { return len(d.pool) }

// NextDestination draws an intersection index from the pool.
func (d *Destinations) NextDestination(rng *rngstream.RngStream) int {
	return d.pool[rng.RandInt(0, len(d.pool)-1)]
}

// Nearest returns the intersection closest to c.
func (g *Graph) Nearest(c Coordinate) (*Intersection, error) {
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("graph has no intersections")
	}
	p := c.Point()
	return lo.MinBy(g.nodes, func(a, b *Intersection) bool {
		return planar.Distance(p, a.Loc.Point()) < planar.Distance(p, b.Loc.Point())
	}), nil
}
