package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mobility-engine/internal/graph"
)

func TestConstructors(t *testing.T) {
	a := graph.Coordinate{X: 1, Y: 2}
	b := graph.Coordinate{X: 4, Y: 6}

	j := Join(3, 0, a)
	assert.Equal(t, KindJoin, j.Kind)
	assert.Zero(t, j.Duration)
	assert.Nil(t, j.Move)

	m := Move(3, 1, 0.5, a, b, 10)
	assert.Equal(t, 1.5, m.End())
	assert.Equal(t, 5.0, m.Distance())
	require.NotNil(t, m.Move)
	assert.Equal(t, b, m.Move.To)

	p := Pause(3, 2, 1, a)
	assert.Zero(t, p.Distance())
	assert.Equal(t, "3 time=2, duration=1 pause at (1,2)", p.String())
	assert.Equal(t, "3 time=1, duration=0.5 move from (1,2) to (4,6)", m.String())
}

func TestStreamOrdering(t *testing.T) {
	var s Stream
	at := graph.Coordinate{}
	s.Append(Join(2, 0, at))
	s.Append(Join(1, 0, at))
	s.Append(Pause(2, 0, 1, at))
	s.Append(Pause(1, 0, 1, at))
	s.Append(Pause(2, 1, 1, at))
	s.Append(Pause(1, 1, 1, at))

	require.Equal(t, 6, s.Len())

	byNode := s.ByNode()
	nodes := make([]int, len(byNode))
	for i, e := range byNode {
		nodes[i] = e.Node
	}
	assert.Equal(t, []int{1, 1, 1, 2, 2, 2}, nodes)
	assert.Equal(t, KindJoin, byNode[0].Kind)
	assert.Equal(t, 1.0, byNode[2].Time)

	byTime := s.ByTime()
	assert.Equal(t, 2, byTime[0].Node)
	assert.Equal(t, 1.0, byTime[4].Time)

	// the returned slices are copies
	byNode[0].Node = 99
	assert.Equal(t, 2, s.Events()[0].Node)
}

func TestValidate(t *testing.T) {
	at := graph.Coordinate{}
	ok := []Event{
		Join(1, 0, at),
		Join(2, 0, at),
		Pause(1, 0, 0.5, at),
		Move(2, 0, 0.5, at, at, 1),
		Pause(1, 0.5, 0.5, at),
		Leave(1, 1, at),
	}
	require.NoError(t, Validate(ok))

	gap := []Event{Join(1, 0, at), Pause(1, 0.5, 1, at)}
	assert.ErrorContains(t, Validate(gap), "ends at 0")

	afterLeave := []Event{Join(1, 0, at), Leave(1, 0, at), Pause(1, 0, 1, at)}
	assert.ErrorContains(t, Validate(afterLeave), "already left")

	negative := []Event{Pause(1, 0, -1, at)}
	assert.Error(t, Validate(negative))
}
