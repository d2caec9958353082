package kinematics

import "math"

// ConstantModelName is the JSON discriminator string for the Constant model.
const ConstantModelName = "constant"

// ConstantAcceleration implements MotionModel using fixed acceleration and deceleration rates.
// The vehicle closes the gap to its desired speed at up to AAcc per second and
// brakes at ADcc once the constraint ahead is within stopping distance.
//
// JSON discriminator: "model": "constant"
type ConstantAcceleration struct {
	AAcc     float64 `json:"a_acc"`    // traction acceleration, m/s²
	ADcc     float64 `json:"a_dcc"`    // service braking deceleration, m/s² (positive)
	S0       float64 `json:"s0"`       // minimum gap, metres
	StopLine float64 `json:"stop_gap"` // gap kept to a red light, metres
	VMaxVal  float64 `json:"v_max"`    // maximum speed, m/s; 0 = road limit
}

func (c ConstantAcceleration) VMax() float64 { return c.VMaxVal }

func (c ConstantAcceleration) StopGap() float64 { return c.StopLine }

func (c ConstantAcceleration) BrakingDistance(v float64) float64 {
	if c.ADcc <= 0 {
		return math.Inf(1)
	}
	return (v * v) / (2 * c.ADcc)
}

func (c ConstantAcceleration) Acceleration(v, v0, s, dv float64) float64 {
	if !math.IsInf(s, 1) {
		if s <= 0 {
			return math.Inf(-1)
		}
		// brake when the gap left after stopping would fall below S0
		if dv > 0 && s-c.S0 <= c.BrakingDistance(dv) {
			return -c.ADcc
		}
	}
	return clamp(v0-v, -c.ADcc, c.AAcc)
}
