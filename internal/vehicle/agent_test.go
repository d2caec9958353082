package vehicle

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/kinematics"
	"github.com/cxd309/mobility-engine/internal/sim"
)

func lineGraph(t *testing.T, length float64) *graph.Graph {
	t.Helper()
	g, err := graph.NewGraph(graph.GraphData{
		Nodes: []graph.Node{{ID: "A", Loc: graph.Coordinate{}}, {ID: "B", Loc: graph.Coordinate{X: length}}},
		Edges: []graph.Edge{
			{ID: "AB", U: "A", V: "B", SpeedLimit: 10},
			{ID: "BA", U: "B", V: "A", SpeedLimit: 10},
		},
	}, graph.DefaultOptions())
	require.NoError(t, err)
	return g
}

// gridGraph is an n×n lattice of two-way roads 100 m apart.
func gridGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	var data graph.GraphData
	id := func(i, j int) string { return fmt.Sprintf("%d_%d", i, j) }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data.Nodes = append(data.Nodes, graph.Node{ID: id(i, j), Loc: graph.Coordinate{X: float64(i) * 100, Y: float64(j) * 100}})
		}
	}
	link := func(a, b string) {
		data.Edges = append(data.Edges,
			graph.Edge{ID: a + ">" + b, U: a, V: b, SpeedLimit: 13.9},
			graph.Edge{ID: b + ">" + a, U: b, V: a, SpeedLimit: 13.9},
		)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i+1 < n {
				link(id(i, j), id(i+1, j))
			}
			if j+1 < n {
				link(id(i, j), id(i, j+1))
			}
		}
	}
	g, err := graph.NewGraph(data, graph.DefaultOptions())
	require.NoError(t, err)
	return g
}

func newContext(seed int64) (*sim.Context, *event.Stream) {
	stream := &event.Stream{}
	return sim.NewContext(1, 1000, seed, stream), stream
}

// place puts a on road at position with an empty onward route.
func place(t *testing.T, a *Agent, g *graph.Graph, roadID string, position float64) {
	t.Helper()
	r, err := g.RoadByID(roadID)
	require.NoError(t, err)
	route, ok := g.ShortestRoute(r.From, r.To)
	require.True(t, ok)
	route.Next()
	a.route = route
	a.Road = r.Index
	a.Position = position
	a.Desired = r.SpeedLimit
	a.Destination = r.To
	r.InsertOrReposition(a.ID, position)
}

func TestWarmupPlacesVehicle(t *testing.T) {
	g := lineGraph(t, 100)
	ctx, stream := newContext(3)
	a := NewAgent(1, DefaultVehicle(), g, graph.UniformDestinations(g), Options{SpeedJitter: 0.05})
	require.NoError(t, a.Warmup(ctx))

	road := g.Road(a.Road)
	assert.GreaterOrEqual(t, a.Position, 0.0)
	assert.Less(t, a.Position, road.Length)
	assert.Zero(t, a.Speed)
	assert.Equal(t, StateApproaching, a.State)
	assert.Equal(t, road.To, a.Destination)
	assert.GreaterOrEqual(t, a.Desired, 9.5)
	assert.LessOrEqual(t, a.Desired, 10.0)
	assert.Equal(t, road.PositionAt(a.Position), a.MapPosition())

	front, ok := road.Foremost()
	require.True(t, ok)
	assert.Equal(t, a.ID, front.Vehicle)
	assert.Zero(t, stream.Len())
}

func TestWarmupFailsWithoutDestinations(t *testing.T) {
	g := lineGraph(t, 100)
	ctx, _ := newContext(1)
	only := &graph.Destinations{}
	only.Add(0, 1)
	a := NewAgent(1, DefaultVehicle(), g, only, Options{})
	assert.ErrorIs(t, a.Warmup(ctx), ErrNoRoute)
}

func TestAdvanceInvariants(t *testing.T) {
	g := gridGraph(t, 4)
	g.ResetSignals()
	ctx, stream := newContext(11)
	dest := graph.UniformDestinations(g)
	opts := Options{CarFollowing: true, TrafficLights: true, SpeedJitter: 0.05}

	agents := make([]*Agent, 30)
	for i := range agents {
		agents[i] = NewAgent(i+1, DefaultVehicle(), g, dest, opts)
		require.NoError(t, agents[i].Warmup(ctx))
	}
	lookup := func(id int) *Agent { return agents[id-1] }

	for tick := 0; tick < 600; tick++ {
		g.StepSignals()
		for _, a := range agents {
			a.Prepare(ctx, lookup)
		}
		for _, a := range agents {
			require.NoError(t, a.Advance(ctx))
			road := g.Road(a.Road)
			require.GreaterOrEqual(t, a.Position, 0.0)
			require.LessOrEqual(t, a.Position, road.Length)
		}

		onRoad := map[int]int{}
		for _, r := range g.Roads() {
			require.True(t, r.Sorted(), "road %s at tick %d", r.ID, tick)
			for _, o := range r.Occupants() {
				onRoad[o.Vehicle]++
				require.Equal(t, r.Index, agents[o.Vehicle-1].Road)
			}
		}
		require.Len(t, onRoad, len(agents))
		for id, n := range onRoad {
			require.Equal(t, 1, n, "vehicle %d", id)
		}
		ctx.Advance()
	}
	require.NoError(t, event.Validate(stream.Events()))
	assert.Equal(t, 600*len(agents), stream.Len())
}

func TestStopsAtRedLight(t *testing.T) {
	g := lineGraph(t, 200)
	ctx, _ := newContext(1)
	a := NewAgent(1, DefaultVehicle(), g, graph.UniformDestinations(g), Options{CarFollowing: true, TrafficLights: true})
	place(t, a, g, "AB", 0)
	road := g.Road(a.Road)
	road.SetSignal(true)
	lookup := func(int) *Agent { return a }

	for _i := 0; _i < 400; _i++ {
		a.Prepare(ctx, lookup)
		require.NoError(t, a.Advance(ctx))
		require.Equal(t, road.Index, a.Road)
	}
	assert.Zero(t, a.Speed)
	assert.Less(t, a.Position, road.Length-a.Vehicle.Kinem.StopGap())
	assert.Greater(t, a.Position, 190.0)

	// green: the vehicle moves on to the next road
	road.SetSignal(false)
	for _i := 0; _i < 20; _i++ {
		a.Prepare(ctx, lookup)
		require.NoError(t, a.Advance(ctx))
	}
	assert.NotEqual(t, road.Index, a.Road)
}

func TestFollowerKeepsDistance(t *testing.T) {
	g := lineGraph(t, 300)
	ctx, _ := newContext(1)
	opts := Options{CarFollowing: true, TrafficLights: true}
	follower := NewAgent(1, DefaultVehicle(), g, graph.UniformDestinations(g), opts)
	leader := NewAgent(2, DefaultVehicle(), g, graph.UniformDestinations(g), opts)
	place(t, follower, g, "AB", 0)
	place(t, leader, g, "AB", 250)
	g.Road(leader.Road).SetSignal(true)
	agents := []*Agent{follower, leader}
	lookup := func(id int) *Agent { return agents[id-1] }

	for _i := 0; _i < 600; _i++ {
		for _, a := range agents {
			a.Prepare(ctx, lookup)
		}
		for _, a := range agents {
			require.NoError(t, a.Advance(ctx))
		}
		require.Greater(t, leader.Position-leader.Vehicle.Length-follower.Position, 0.0)
	}
	assert.Zero(t, follower.Speed)
	assert.Zero(t, leader.Speed)
	assert.InDelta(t, leader.Position-leader.Vehicle.Length-1, follower.Position, 0.5)
}

func TestCarFollowingDisabledIgnoresLeader(t *testing.T) {
	g := lineGraph(t, 300)
	ctx, _ := newContext(1)
	follower := NewAgent(1, DefaultVehicle(), g, graph.UniformDestinations(g), Options{})
	leader := NewAgent(2, DefaultVehicle(), g, graph.UniformDestinations(g), Options{})
	place(t, follower, g, "AB", 100)
	place(t, leader, g, "AB", 101)
	lookup := func(id int) *Agent { return []*Agent{follower, leader}[id-1] }

	follower.Prepare(ctx, lookup)
	assert.InDelta(t, kinematics.DefaultIntelligentDriver().A, follower.dv, 1e-12)
}

func TestAdvanceEmitsMoveAndPause(t *testing.T) {
	g := lineGraph(t, 100)
	ctx, stream := newContext(1)
	a := NewAgent(7, DefaultVehicle(), g, graph.UniformDestinations(g), Options{})
	place(t, a, g, "AB", 10)
	a.lastPos = g.Road(a.Road).PositionAt(10)

	// standing still with no acceleration: pause
	a.dv = 0
	require.NoError(t, a.Advance(ctx))
	ctx.Advance()
	a.Prepare(ctx, nil)
	require.NoError(t, a.Advance(ctx))

	events := stream.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.KindPause, events[0].Kind)
	assert.Equal(t, graph.Coordinate{X: 10}, events[0].At)
	assert.Equal(t, event.KindMove, events[1].Kind)
	assert.Equal(t, 1.0, events[1].Time)
	assert.InDelta(t, 0.6, events[1].Move.Velocity, 1e-12)
	assert.InDelta(t, 10.6, events[1].Move.To.X, 1e-12)
	require.NoError(t, event.Validate(events))

	ctx.Warmup = true
	a.Prepare(ctx, nil)
	require.NoError(t, a.Advance(ctx))
	assert.Equal(t, 2, stream.Len())
}

func TestAdvanceReroutesAtDestination(t *testing.T) {
	g := lineGraph(t, 100)
	ctx, _ := newContext(5)
	a := NewAgent(1, DefaultVehicle(), g, graph.UniformDestinations(g), Options{})
	place(t, a, g, "AB", 99)
	a.Speed = 5
	a.dv = 0

	require.NoError(t, a.Advance(ctx))
	ba, _ := g.RoadByID("BA")
	assert.Equal(t, ba.Index, a.Road)
	assert.InDelta(t, 4.0, a.Position, 1e-9)
	assert.Equal(t, ba.To, a.Destination)
	assert.Equal(t, StateApproaching, a.State)
	ab, _ := g.RoadByID("AB")
	assert.Empty(t, ab.Occupants())
	assert.Len(t, ba.Occupants(), 1)

	a.Leave()
	assert.Empty(t, ba.Occupants())
}

func TestVehicleProfileJSON(t *testing.T) {
	var v Vehicle
	require.NoError(t, json.Unmarshal([]byte(`{"name":"bus","length":12,"kinematics":{"model":"idm","a":1.0,"v_max":15}}`), &v))
	assert.Equal(t, "bus", v.Name)
	assert.Equal(t, 12.0, v.Length)
	idm, ok := v.Kinem.(kinematics.IntelligentDriver)
	require.True(t, ok)
	assert.Equal(t, 1.0, idm.A)
	assert.Equal(t, 0.9, idm.B)
	assert.Equal(t, 15.0, idm.VMax())

	require.NoError(t, json.Unmarshal([]byte(`{"kinematics":{"model":"constant","a_acc":1,"a_dcc":2}}`), &v))
	assert.Equal(t, DefaultLength, v.Length)
	assert.IsType(t, kinematics.ConstantAcceleration{}, v.Kinem)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &v))
	assert.Equal(t, DefaultVehicle(), v)

	assert.Error(t, json.Unmarshal([]byte(`{"kinematics":{"model":"warp"}}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"length":-1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"kinematics":{"model":"idm","b":0}}`), &v))
}

func TestConstantProfileNeedsPositiveRates(t *testing.T) {
	for _, in := range []string{
		`{"kinematics":{"model":"constant","a_acc":0,"a_dcc":2}}`,
		`{"kinematics":{"model":"constant","a_acc":1,"a_dcc":0}}`,
		`{"kinematics":{"model":"constant","a_acc":-1,"a_dcc":2}}`,
		`{"kinematics":{"model":"constant"}}`,
	} {
		var v Vehicle
		err := json.Unmarshal([]byte(in), &v)
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "a_acc and a_dcc")
	}
}

func TestVehicleSpeedCap(t *testing.T) {
	g := lineGraph(t, 100)
	ctx, _ := newContext(1)
	k := kinematics.DefaultIntelligentDriver()
	k.VMaxVal = 5
	a := NewAgent(1, Vehicle{Name: "slow", Length: 4, Kinem: k}, g, graph.UniformDestinations(g), Options{})
	require.NoError(t, a.Warmup(ctx))
	assert.Equal(t, 5.0, a.Desired)
}
