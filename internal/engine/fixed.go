package engine

import (
	"math"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/sim"
)

// fixedModel keeps every node at a random position for the whole run.
type fixedModel struct {
	nodes int
	arena float64 // side of the square arena, metres
	pos   []graph.Coordinate
}

func newFixedModel(nodes int, arena float64) *fixedModel {
	return &fixedModel{nodes: nodes, arena: arena}
}

func (m *fixedModel) Nodes() int { return m.nodes }

// Init draws the positions with the same spatial distribution as the steady
// state of a random waypoint walk: a point on the segment between two uniform
// points, accepting segments with probability proportional to their length.
func (m *fixedModel) Init(ctx *sim.Context) error {
	m.pos = make([]graph.Coordinate, m.nodes)
	rng := ctx.RNG
	for i := range m.pos {
		for {
			x1, x2 := rng.RandU01(), rng.RandU01()
			y1, y2 := rng.RandU01(), rng.RandU01()
			r := math.Hypot(x2-x1, y2-y1) / math.Sqrt2
			if rng.RandU01() >= r {
				continue
			}
			u := rng.RandU01()
			m.pos[i] = graph.Coordinate{
				X: m.arena * (u*x1 + (1-u)*x2),
				Y: m.arena * (u*y1 + (1-u)*y2),
			}
			break
		}
	}
	return nil
}

func (m *fixedModel) Tick(ctx *sim.Context) error {
	for i, p := range m.pos {
		ctx.Emit(event.Pause(i+1, ctx.Clock, ctx.Step, p))
	}
	return nil
}

func (m *fixedModel) OnJoin(ctx *sim.Context, node int) {
	ctx.Emit(event.Join(node, ctx.Clock, m.pos[node-1]))
}

func (m *fixedModel) OnLeave(ctx *sim.Context, node int) {
	ctx.Emit(event.Leave(node, ctx.Clock, m.pos[node-1]))
}

func (m *fixedModel) Finish(*sim.Context) {}
