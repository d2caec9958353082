// Package engine implements the simulation driver.
//
// The simulation advances in fixed timesteps. A run has three stages:
//
//  1. Warm-up - the mobility model places its nodes and runs for a number of
//     unrecorded ticks with the clock held at zero.
//
//  2. Recording - every node joins at t=0, then the model ticks
//     ceil(run_time/time_step) times, each tick emitting one Move or Pause
//     per node. When time_step does not divide run_time the last tick is
//     shortened to the remainder.
//
//  3. Teardown - every node leaves at run_time and the modules summarise
//     the run.
package engine

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/loader"
	"github.com/cxd309/mobility-engine/internal/sim"
)

// Simulation is a configured, runnable simulation.
type Simulation struct {
	meta    SimulationMeta
	model   MobilityModel
	stats   *Stats
	modules []Module
	stream  *event.Stream
	ctx     *sim.Context
}

// NewSimulation loads the referenced input files, applies defaults and builds
// the mobility model. Relative file names are resolved against the working
// directory; use LoadInput to resolve them against the input file.
func NewSimulation(input SimulationInput) (*Simulation, error) {
	if err := input.loadSources(); err != nil {
		return nil, err
	}
	if err := input.applyDefaults(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	meta := input.Meta

	var model MobilityModel
	switch meta.Model {
	case ModelFixed:
		model = newFixedModel(meta.Nodes, meta.ArenaSize)
	default:
		g, err := graph.NewGraph(*input.GraphData, input.Traffic.graphOptions())
		if err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
		if g.NumRoads() == 0 {
			return nil, fmt.Errorf("building graph: no roads left after pruning")
		}
		bound := g.Bound()
		log.WithFields(log.Fields{
			"simulation_id": meta.SimulationID,
			"intersections": g.NumIntersections(),
			"roads":         g.NumRoads(),
			"width":         bound.Right() - bound.Left(),
			"height":        bound.Top() - bound.Bottom(),
		}).Info("road network ready")
		var dest graph.DestinationSelector = graph.UniformDestinations(g)
		if len(input.Points) > 0 {
			if dest, err = loader.Destinations(g, input.Points); err != nil {
				return nil, fmt.Errorf("points of interest: %w", err)
			}
		}
		model = newRoadModel(g, dest, *input.Vehicle, input.Traffic.agentOptions(), meta.Nodes)
	}

	stream := &event.Stream{}
	stats := &Stats{}
	modules := []Module{stats}
	ctx := sim.NewContext(meta.TimeStep, meta.RunTime, meta.Seed, &dispatcher{stream: stream, modules: modules})
	ctx.Log = log.WithField("simulation_id", meta.SimulationID)

	return &Simulation{
		meta:    meta,
		model:   model,
		stats:   stats,
		modules: modules,
		stream:  stream,
		ctx:     ctx,
	}, nil
}

// Run executes the full simulation and returns the log.
func (s *Simulation) Run() (SimulationLog, error) {
	ctx := s.ctx
	ticks := s.meta.recordingTicks()
	ctx.Log.WithFields(log.Fields{
		"model":        s.meta.Model,
		"nodes":        s.model.Nodes(),
		"warmup_ticks": *s.meta.WarmupTicks,
		"ticks":        ticks,
	}).Info("simulation started")

	ctx.Warmup = true
	if err := s.model.Init(ctx); err != nil {
		return SimulationLog{}, fmt.Errorf("initialising %s model: %w", s.meta.Model, err)
	}
	for i := 0; i < *s.meta.WarmupTicks; i++ {
		if err := s.model.Tick(ctx); err != nil {
			return SimulationLog{}, fmt.Errorf("warm-up tick %d: %w", i, err)
		}
	}
	ctx.Warmup = false

	for _, m := range s.modules {
		m.Init(ctx)
	}
	for node := 1; node <= s.model.Nodes(); node++ {
		s.model.OnJoin(ctx, node)
	}
	for i := 0; i < ticks; i++ {
		// the last step is cut short so the run ends exactly at run_time
		if rest := s.meta.RunTime - ctx.Clock; i == ticks-1 && rest > 0 && rest < ctx.Step {
			ctx.Step = rest
		}
		if err := s.model.Tick(ctx); err != nil {
			return SimulationLog{}, fmt.Errorf("at t=%.2f: %w", ctx.Clock, err)
		}
		for _, m := range s.modules {
			m.Tick(ctx)
		}
		ctx.Advance()
	}
	for node := 1; node <= s.model.Nodes(); node++ {
		s.model.OnLeave(ctx, node)
	}
	s.model.Finish(ctx)
	for _, m := range s.modules {
		m.Finish(ctx)
	}

	ctx.Log.WithFields(log.Fields{
		"events":        s.stream.Len(),
		"avg_node_time": s.stats.Summary.AvgNodeTime,
	}).Info("simulation finished")

	return SimulationLog{
		Meta:    s.meta,
		Summary: s.stats.Summary,
		Events:  s.stream.ByNode(),
	}, nil
}

// RunJSON is the primary entry point for the CLI and WASM targets.
// It accepts a JSON-encoded SimulationInput, runs the simulation, and returns a
// JSON-encoded SimulationLog.
func RunJSON(jsonInput string) (string, error) {
	var input SimulationInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	simLog, err := Run(input)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}

// Run builds and runs a simulation in one call.
func Run(input SimulationInput) (SimulationLog, error) {
	s, err := NewSimulation(input)
	if err != nil {
		return SimulationLog{}, err
	}
	return s.Run()
}
