package graph

import (
	"math"

	"github.com/samber/lo"
)

// SignalState is the round-robin traffic light schedule of an intersection.
// Phase i gives green to the i-th incoming road for Durations[i] ticks.
type SignalState struct {
	Phase          int
	TicksRemaining int
	Durations      []int
}

// Intersection is a junction of roads. In and Out hold road indices in the
// order the roads were added.
type Intersection struct {
	ID     NodeID
	Index  int
	Loc    Coordinate
	In     []int
	Out    []int
	Signal *SignalState // nil for first-come-first-served control
}

// Signaled reports whether the intersection is controlled by a traffic light.
func (n *Intersection) Signaled() bool { return n.Signal != nil }

// deriveSignals assigns a signal schedule to every intersection with enough
// incoming roads. Phase durations are proportional to road priority and
// normalised to the cycle length.
func (g *Graph) deriveSignals(opts Options) {
	if opts.SignalMinIncoming <= 0 || opts.SignalCycle <= 0 {
		return
	}
	for _, n := range g.nodes {
		if len(n.In) < opts.SignalMinIncoming {
			continue
		}
		n.Signal = &SignalState{Durations: phaseDurations(g, n.In, opts.SignalCycle)}
	}
}

func phaseDurations(g *Graph, in []int, cycle int) []int {
	sum := lo.SumBy(in, func(r int) int { return g.roads[r].Priority })
	return lo.Map(in, func(r int, _ int) int {
		d := int(math.Round(float64(g.roads[r].Priority) / float64(sum) * float64(cycle)))
		// a zero-length phase would starve its road
		return max(d, 1)
	})
}

// Reset puts a signaled intersection into its initial state: phase 0 green,
// every other incoming road red.
func (n *Intersection) Reset(g *Graph) {
	if n.Signal == nil {
		return
	}
	for _, r := range n.In {
		g.roads[r].SetSignal(true)
	}
	n.Signal.Phase = 0
	n.Signal.TicksRemaining = n.Signal.Durations[0]
	g.roads[n.In[0]].SetSignal(false)
}

// Next advances the intersection's signal control by one tick.
func (n *Intersection) Next(g *Graph) {
	if n.Signal == nil {
		n.firstComeFirstServed(g)
		return
	}
	s := n.Signal
	if s.TicksRemaining <= 0 {
		g.roads[n.In[s.Phase]].SetSignal(true)
		s.Phase = (s.Phase + 1) % len(n.In)
		s.TicksRemaining = s.Durations[s.Phase]
		g.roads[n.In[s.Phase]].SetSignal(false)
	}
	s.TicksRemaining--
}

// firstComeFirstServed grants green to the incoming road whose foremost
// vehicle is closest to the stop line. All other roads are red.
func (n *Intersection) firstComeFirstServed(g *Graph) {
	best := -1
	bestDistance := math.Inf(1)
	for _, ri := range n.In {
		r := g.roads[ri]
		r.SetSignal(true)
		o, ok := r.Foremost()
		if !ok {
			continue
		}
		if d := r.Length - o.Position; d < bestDistance {
			bestDistance = d
			best = ri
		}
	}
	if best >= 0 {
		g.roads[best].SetSignal(false)
	}
}

// ResetSignals initialises every signaled intersection.
func (g *Graph) ResetSignals() {
	for _, n := range g.nodes {
		n.Reset(g)
	}
}

// StepSignals advances signal control at every intersection with incoming roads.
func (g *Graph) StepSignals() {
	for _, n := range g.nodes {
		if len(n.In) == 0 {
			continue
		}
		n.Next(g)
	}
}
