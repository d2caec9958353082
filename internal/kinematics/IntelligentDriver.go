package kinematics

import "math"

// IntelligentDriverModelName is the JSON discriminator string for the IDM.
const IntelligentDriverModelName = "idm"

// IntelligentDriver implements MotionModel with the Intelligent Driver Model:
//
//	dv = a * (1 - (v/v0)^4 - (s*/s)^2)
//	s* = s0 + v*T + v*Δv / (2*sqrt(a*b))
//
// JSON discriminator: "model": "idm"
type IntelligentDriver struct {
	A        float64 `json:"a"`        // comfortable acceleration, m/s²
	B        float64 `json:"b"`        // comfortable deceleration, m/s² (positive)
	S0       float64 `json:"s0"`       // minimum desired gap, metres
	TReact   float64 `json:"t_react"`  // driver reaction time, seconds
	K        float64 `json:"k"`        // hard braking factor applied to B
	StopLine float64 `json:"stop_gap"` // gap kept to a red light, metres
	VMaxVal  float64 `json:"v_max"`    // own speed cap, m/s; 0 = road limit
}

// DefaultIntelligentDriver returns the passenger-car parameter set.
func DefaultIntelligentDriver() IntelligentDriver {
	return IntelligentDriver{A: 0.6, B: 0.9, S0: 1, TReact: 1, K: 5, StopLine: 2}
}

func (m IntelligentDriver) VMax() float64 { return m.VMaxVal }

func (m IntelligentDriver) StopGap() float64 { return m.StopLine }

func (m IntelligentDriver) BrakingDistance(v float64) float64 {
	if m.B <= 0 || m.K <= 0 {
		return math.Inf(1)
	}
	return v * v / (2 * m.K * m.B)
}

func (m IntelligentDriver) Acceleration(v, v0, s, dv float64) float64 {
	free := 1 - math.Pow(v/v0, 4)
	if math.IsInf(s, 1) {
		return m.A * free
	}
	if s <= 0 {
		// already touching the obstacle: stop within the step
		return math.Inf(-1)
	}
	sStar := m.S0 + v*m.TReact + v*dv/(2*math.Sqrt(m.A*m.B))
	return m.A * (free - math.Pow(sStar/s, 2))
}
