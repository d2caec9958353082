// Package kinematics defines the MotionModel interface for the car-following
// acceleration laws used by vehicle agents, along with built-in implementations.
//
// Adding a new physics model requires only implementing MotionModel and registering it
// in the JSON discriminator in the vehicle package; the agents themselves never
// need to change.
package kinematics

import (
	"math"

	"golang.org/x/exp/constraints"
)

// NoConstraint is the gap passed to Acceleration when nothing limits the vehicle.
var NoConstraint = math.Inf(1)

// MotionModel is the physics contract every kinematics implementation must satisfy.
// All distance values are in metres, velocities in m/s, and time in seconds.
type MotionModel interface {
	// VMax returns the vehicle's own speed cap (m/s); 0 means the road limit applies.
	VMax() float64

	// BrakingDistance returns the distance needed to stop from velocity v when
	// braking hard, used to decide whether a red light can still be honoured.
	BrakingDistance(v float64) float64

	// StopGap returns the distance kept to the stop line at a red light.
	StopGap() float64

	// Acceleration returns the desired acceleration (m/s²) at speed v with
	// desired speed v0, given the gap s to the limiting constraint and the
	// closing speed dv towards it. s is NoConstraint on a free road.
	Acceleration(v, v0, s, dv float64) float64
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
