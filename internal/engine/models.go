package engine

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/loader"
	"github.com/cxd309/mobility-engine/internal/vehicle"
)

const (
	ModelRoad  = "road"
	ModelFixed = "fixed"

	DefaultWarmupTicks = 5000
	DefaultSpeedJitter = 0.05
	DefaultArenaSize   = 1000.0
)

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID string  `json:"simulation_id"`
	RunTime      float64 `json:"run_time"`  // seconds
	TimeStep     float64 `json:"time_step"` // seconds
	Seed         int64   `json:"seed"`
	// WarmupTicks is the number of unrecorded ticks run before the first
	// event, so that recording starts from a settled traffic state.
	WarmupTicks *int   `json:"warmup_ticks,omitempty"`
	Model       string `json:"model,omitempty"` // "road" (default) or "fixed"
	Nodes       int    `json:"nodes"`
	// ArenaSize is the side of the square the fixed model places nodes in, metres.
	ArenaSize float64 `json:"arena_size,omitempty"`
}

// TrafficOptions switches the interaction models of the road model.
// Unset switches default to on.
type TrafficOptions struct {
	CarFollowing      *bool    `json:"car_following,omitempty"`
	TrafficLights     *bool    `json:"traffic_lights,omitempty"`
	SignalMinIncoming int      `json:"signal_min_incoming,omitempty"`
	SignalCycle       int      `json:"signal_cycle,omitempty"` // ticks
	SpeedJitter       *float64 `json:"speed_jitter,omitempty"`
}

// SimulationInput is the JSON-serialisable input to the engine. The road
// network is given inline as GraphData or as a roads file; destinations are
// drawn uniformly from all intersections unless a points file is given.
type SimulationInput struct {
	Meta       SimulationMeta   `json:"simulation_meta"`
	Traffic    TrafficOptions   `json:"traffic"`
	GraphData  *graph.GraphData `json:"graph_data,omitempty"`
	RoadsFile  string           `json:"roads_file,omitempty"`
	PointsFile string           `json:"points_file,omitempty"`
	Points     []loader.Point   `json:"points,omitempty"`
	Vehicle    *vehicle.Vehicle `json:"vehicle,omitempty"`
}

// Summary is the node participation statistics of a run.
type Summary struct {
	UniqueNodes int     `json:"unique_nodes"`
	Joins       int     `json:"joins"`
	AvgNodes    float64 `json:"avg_nodes"`     // mean node count per recorded tick
	AvgNodeTime float64 `json:"avg_node_time"` // mean participation time, seconds
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta    SimulationMeta `json:"simulation_meta"`
	Summary Summary        `json:"summary"`
	Events  []event.Event  `json:"events"`
}

// applyDefaults fills unset fields and rejects inconsistent ones.
func (in *SimulationInput) applyDefaults() error {
	m := &in.Meta
	if m.SimulationID == "" {
		m.SimulationID = uuid.NewString()
	}
	if m.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %v", m.TimeStep)
	}
	if m.RunTime <= 0 {
		return fmt.Errorf("run_time must be positive, got %v", m.RunTime)
	}
	if m.Nodes <= 0 {
		return fmt.Errorf("nodes must be positive, got %d", m.Nodes)
	}
	if m.WarmupTicks == nil {
		m.WarmupTicks = ptr(DefaultWarmupTicks)
	} else if *m.WarmupTicks < 0 {
		return fmt.Errorf("warmup_ticks must not be negative, got %d", *m.WarmupTicks)
	}
	switch m.Model {
	case "":
		m.Model = ModelRoad
	case ModelRoad, ModelFixed:
	default:
		return fmt.Errorf("unknown mobility model %q", m.Model)
	}
	if m.ArenaSize < 0 {
		return fmt.Errorf("arena_size must not be negative, got %v", m.ArenaSize)
	}
	if m.ArenaSize == 0 {
		m.ArenaSize = DefaultArenaSize
	}

	t := &in.Traffic
	if t.CarFollowing == nil {
		t.CarFollowing = ptr(true)
	}
	if t.TrafficLights == nil {
		t.TrafficLights = ptr(true)
	}
	if t.SpeedJitter == nil {
		t.SpeedJitter = ptr(DefaultSpeedJitter)
	} else if *t.SpeedJitter < 0 || *t.SpeedJitter > 1 {
		return fmt.Errorf("speed_jitter must be within [0, 1], got %v", *t.SpeedJitter)
	}
	def := graph.DefaultOptions()
	if t.SignalMinIncoming <= 0 {
		t.SignalMinIncoming = def.SignalMinIncoming
	}
	if t.SignalCycle <= 0 {
		t.SignalCycle = def.SignalCycle
	}

	if in.Vehicle == nil {
		v := vehicle.DefaultVehicle()
		in.Vehicle = &v
	}
	if m.Model == ModelRoad && in.GraphData == nil {
		return fmt.Errorf("road model needs graph_data or roads_file")
	}
	return nil
}

// recordingTicks returns the number of recorded ticks, ceil(run_time/time_step).
func (m SimulationMeta) recordingTicks() int {
	return int(math.Ceil(m.RunTime/m.TimeStep - 1e-9))
}

func (t TrafficOptions) graphOptions() graph.Options {
	return graph.Options{SignalMinIncoming: t.SignalMinIncoming, SignalCycle: t.SignalCycle}
}

func (t TrafficOptions) agentOptions() vehicle.Options {
	return vehicle.Options{
		CarFollowing:  *t.CarFollowing,
		TrafficLights: *t.TrafficLights,
		SpeedJitter:   *t.SpeedJitter,
	}
}

func ptr[T any](v T) *T { return &v }
