// Package vehicle implements the per-node driving agent: route following,
// car-following acceleration and the transition between roads.
package vehicle

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/graph"
	"github.com/cxd309/mobility-engine/internal/kinematics"
	"github.com/cxd309/mobility-engine/internal/sim"
)

// AgentState describes where the agent is in its trip.
type AgentState string

const (
	StateRouting     AgentState = "routing"     // picking a new destination
	StateTraveling   AgentState = "traveling"   // more roads left on the route
	StateApproaching AgentState = "approaching" // on the last road of the route
)

// StopThreshold is the speed (m/s) below which a vehicle is considered stopped.
const StopThreshold = 0.01

// MaxRouteAttempts bounds destination sampling before routing is declared broken.
const MaxRouteAttempts = 10000

// ErrNoRoute is returned when no reachable destination could be found.
// Construction-time pruning makes this an internal invariant violation.
var ErrNoRoute = errors.New("no reachable destination")

// Options switches the interaction models on or off.
type Options struct {
	CarFollowing  bool
	TrafficLights bool
	// SpeedJitter draws the desired speed on each road uniformly from
	// [limit*(1-SpeedJitter), limit].
	SpeedJitter float64
}

// Lookup resolves a vehicle handle stored in a road's occupancy list.
type Lookup func(id int) *Agent

// Agent is a vehicle driving on the road network.
type Agent struct {
	ID      int
	Vehicle Vehicle
	State   AgentState

	Road        int     // current road index
	Position    float64 // metres from the start of Road
	Speed       float64 // m/s
	Desired     float64 // desired speed on the current road, m/s
	Destination int     // intersection index the route ends at

	route   *graph.Route
	dv      float64
	lastPos graph.Coordinate

	net  *graph.Graph
	dest graph.DestinationSelector
	opts Options
}

// NewAgent creates an agent that is not yet placed on the network.
func NewAgent(id int, v Vehicle, g *graph.Graph, dest graph.DestinationSelector, opts Options) *Agent {
	return &Agent{
		ID:      id,
		Vehicle: v,
		State:   StateRouting,
		net:     g,
		dest:    dest,
		opts:    opts,
		Road:    -1,
	}
}

// MapPosition returns the last map position the agent reported.
func (a *Agent) MapPosition() graph.Coordinate { return a.lastPos }

// RemainingRoute returns the number of roads left after the current one.
func (a *Agent) RemainingRoute() int {
	if a.route == nil {
		return 0
	}
	return a.route.Len()
}

// Warmup places the agent at a random position on the first road of a
// route between two random destinations, at standstill.
func (a *Agent) Warmup(ctx *sim.Context) error {
	start := a.dest.NextDestination(ctx.RNG)
	if err := a.planRoute(ctx, start); err != nil {
		return err
	}
	first, _ := a.route.Next()
	road := a.net.Road(first)

	a.Position = road.Length * ctx.RNG.RandU01()
	a.Speed = 0
	a.Road = first
	road.InsertOrReposition(a.ID, a.Position)
	a.Desired = a.desiredSpeed(ctx, road)
	a.updateState()
	a.lastPos = road.PositionAt(a.Position)
	return nil
}

// Prepare computes the acceleration for the coming step from the current,
// not yet advanced, state of the agent and its leader.
func (a *Agent) Prepare(ctx *sim.Context, lookup Lookup) {
	road := a.net.Road(a.Road)
	m := a.Vehicle.Kinem

	gap, closing := kinematics.NoConstraint, 0.0

	if a.opts.TrafficLights && road.IsRed() {
		// only stop if the line can still be reached without hard braking
		if d := road.Length - m.StopGap() - a.Position; d > m.BrakingDistance(a.Speed) {
			gap, closing = d, a.Speed
		}
	}

	if a.opts.CarFollowing {
		if ahead, ok := road.VehicleAhead(a.ID, a.Position); ok {
			leader := lookup(ahead.Vehicle)
			if d := ahead.Position - leader.Vehicle.Length - a.Position; d < gap {
				gap, closing = d, a.Speed-leader.Speed
			}
		}
	}

	a.dv = m.Acceleration(a.Speed, a.Desired, gap, closing)
}

// Advance applies the prepared acceleration, moves the agent along its route
// and reports the movement to ctx.
func (a *Agent) Advance(ctx *sim.Context) error {
	dt := ctx.Step

	a.Speed = math.Max(0, a.Speed+a.dv*dt)
	if a.Speed < StopThreshold {
		a.Speed = 0
	}
	a.Position += a.Speed * dt

	road := a.net.Road(a.Road)
	for a.Position >= road.Length {
		a.Position -= road.Length
		road.Remove(a.ID)

		next, ok := a.route.Next()
		if !ok {
			a.State = StateRouting
			if err := a.planRoute(ctx, road.To); err != nil {
				return err
			}
			next, _ = a.route.Next()
		}
		road = a.net.Road(next)
		a.Road = next
		a.Desired = a.desiredSpeed(ctx, road)
		a.updateState()
	}
	road.InsertOrReposition(a.ID, a.Position)

	pos := road.PositionAt(a.Position)
	if a.Speed > 0 {
		ctx.Emit(event.Move(a.ID, ctx.Clock, dt, a.lastPos, pos, a.Speed))
	} else {
		ctx.Emit(event.Pause(a.ID, ctx.Clock, dt, pos))
	}
	a.lastPos = pos
	return nil
}

// Leave takes the agent off the network.
func (a *Agent) Leave() {
	if a.Road >= 0 {
		a.net.Road(a.Road).Remove(a.ID)
	}
}

// planRoute samples destinations different from `from` until one is
// reachable and stores the route to it.
func (a *Agent) planRoute(ctx *sim.Context, from int) error {
	for _i := 0; _i < MaxRouteAttempts; _i++ {
		dest := a.dest.NextDestination(ctx.RNG)
		if dest == from {
			continue
		}
		if route, ok := a.net.ShortestRoute(from, dest); ok {
			ctx.Log.WithFields(log.Fields{
				"vehicle": a.ID,
				"from":    a.net.Intersection(from).ID,
				"to":      a.net.Intersection(dest).ID,
				"roads":   route.Len(),
			}).Debug("new route")
			a.route = route
			a.Destination = dest
			return nil
		}
	}
	return fmt.Errorf("vehicle %d from intersection %q: %w", a.ID, a.net.Intersection(from).ID, ErrNoRoute)
}

// desiredSpeed draws the target speed for a road the agent just entered.
func (a *Agent) desiredSpeed(ctx *sim.Context, road *graph.Road) float64 {
	limit := road.SpeedLimit
	if vmax := a.Vehicle.Kinem.VMax(); vmax > 0 && vmax < limit {
		limit = vmax
	}
	return limit * (ctx.RNG.RandU01()*a.opts.SpeedJitter + 1 - a.opts.SpeedJitter)
}

func (a *Agent) updateState() {
	if a.route.Len() == 0 {
		a.State = StateApproaching
	} else {
		a.State = StateTraveling
	}
}
