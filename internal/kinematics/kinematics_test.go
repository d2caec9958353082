package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntelligentDriverFreeRoad(t *testing.T) {
	m := DefaultIntelligentDriver()
	assert.InDelta(t, m.A, m.Acceleration(0, 10, NoConstraint, 0), 1e-12)
	assert.InDelta(t, 0, m.Acceleration(10, 10, NoConstraint, 0), 1e-12)
	assert.Less(t, m.Acceleration(12, 10, NoConstraint, 0), 0.0)

	// integrate from standstill: converges on v0 without overshoot
	v := 0.0
	for _i := 0; _i < 200; _i++ {
		v = math.Max(0, v+m.Acceleration(v, 10, NoConstraint, 0))
		assert.LessOrEqual(t, v, 10.0)
	}
	assert.InDelta(t, 10, v, 1e-3)
}

func TestIntelligentDriverFollowing(t *testing.T) {
	m := DefaultIntelligentDriver()
	// closing in on a standing obstacle brakes harder the nearer it is
	far := m.Acceleration(10, 10, 100, 10)
	near := m.Acceleration(10, 10, 20, 10)
	assert.Less(t, near, far)
	assert.Less(t, near, 0.0)

	// a leader pulling away barely matters at a large gap
	assert.InDelta(t, m.Acceleration(5, 10, NoConstraint, 0), m.Acceleration(5, 10, 1e6, -5), 1e-6)

	assert.True(t, math.IsInf(m.Acceleration(5, 10, 0, 0), -1))
	assert.True(t, math.IsInf(m.Acceleration(5, 10, -1, 0), -1))
}

func TestIntelligentDriverBrakingDistance(t *testing.T) {
	m := DefaultIntelligentDriver()
	assert.InDelta(t, 100.0/9.0, m.BrakingDistance(10), 1e-12)
	assert.Equal(t, 2.0, m.StopGap())
	assert.True(t, math.IsInf(IntelligentDriver{}.BrakingDistance(1), 1))
}

func TestConstantAcceleration(t *testing.T) {
	c := ConstantAcceleration{AAcc: 1, ADcc: 2, S0: 1}
	assert.Equal(t, 1.0, c.Acceleration(0, 10, NoConstraint, 0))
	assert.Equal(t, 0.5, c.Acceleration(9.5, 10, NoConstraint, 0))
	assert.Equal(t, -2.0, c.Acceleration(15, 10, NoConstraint, 0))

	// 10 m/s needs 25 m to stop
	assert.Equal(t, -2.0, c.Acceleration(10, 10, 20, 10))
	assert.Equal(t, 0.0, c.Acceleration(10, 10, 50, 10))
	assert.True(t, math.IsInf(c.Acceleration(10, 10, 0, 10), -1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, clamp(5, 1, 3))
	assert.Equal(t, 1.5, clamp(1.5, 1.0, 3.0))
	assert.Equal(t, -1.0, clamp(-4.0, -1.0, 3.0))
}
