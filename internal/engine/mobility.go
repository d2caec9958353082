package engine

import (
	"fmt"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/sim"
	"github.com/cxd309/mobility-engine/internal/vehicle"
)

// MobilityModel moves a fixed population of nodes, numbered 1..Nodes().
// Init runs during warm-up, so it must not rely on events being recorded.
type MobilityModel interface {
	Init(ctx *sim.Context) error
	Nodes() int
	Tick(ctx *sim.Context) error
	OnJoin(ctx *sim.Context, node int)
	OnLeave(ctx *sim.Context, node int)
	Finish(ctx *sim.Context)
}

// roadModel drives vehicles over a road network.
type roadModel struct {
	graph   *graph.Graph
	dest    graph.DestinationSelector
	profile vehicle.Vehicle
	opts    vehicle.Options
	nodes   int

	agents []*vehicle.Agent
}

func newRoadModel(g *graph.Graph, dest graph.DestinationSelector, profile vehicle.Vehicle, opts vehicle.Options, nodes int) *roadModel {
	return &roadModel{graph: g, dest: dest, profile: profile, opts: opts, nodes: nodes}
}

func (m *roadModel) Nodes() int { return m.nodes }

// Init places every vehicle on a random road of a random route, in id order.
func (m *roadModel) Init(ctx *sim.Context) error {
	if m.opts.TrafficLights {
		m.graph.ResetSignals()
	}
	m.agents = make([]*vehicle.Agent, m.nodes)
	for i := range m.agents {
		a := vehicle.NewAgent(i+1, m.profile, m.graph, m.dest, m.opts)
		if err := a.Warmup(ctx); err != nil {
			return fmt.Errorf("placing vehicle %d: %w", a.ID, err)
		}
		m.agents[i] = a
	}
	return nil
}

func (m *roadModel) agent(id int) *vehicle.Agent { return m.agents[id-1] }

// Tick switches the signals, then lets every vehicle decide on its
// acceleration before any of them moves.
func (m *roadModel) Tick(ctx *sim.Context) error {
	if m.opts.TrafficLights {
		m.graph.StepSignals()
	}
	for _, a := range m.agents {
		a.Prepare(ctx, m.agent)
	}
	for _, a := range m.agents {
		if err := a.Advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *roadModel) OnJoin(ctx *sim.Context, node int) {
	ctx.Emit(event.Join(node, ctx.Clock, m.agent(node).MapPosition()))
}

func (m *roadModel) OnLeave(ctx *sim.Context, node int) {
	a := m.agent(node)
	ctx.Emit(event.Leave(node, ctx.Clock, a.MapPosition()))
	a.Leave()
}

func (m *roadModel) Finish(ctx *sim.Context) {
	var stopped int
	for _, a := range m.agents {
		if a.Speed == 0 {
			stopped++
		}
	}
	ctx.Log.WithField("stopped", stopped).Debug("road model finished")
}
