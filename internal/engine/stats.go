package engine

import (
	"github.com/cxd309/mobility-engine/internal/event"
	"github.com/cxd309/mobility-engine/internal/sim"
)

// Module observes a run. Join and leave notifications arrive through the
// event sink, so they are only seen outside warm-up.
type Module interface {
	Init(ctx *sim.Context)
	Tick(ctx *sim.Context)
	Finish(ctx *sim.Context)
	OnJoin(t float64, node int)
	OnLeave(t float64, node int)
}

// Stats counts node participation.
type Stats struct {
	unique  map[int]bool
	joined  map[int]float64 // node -> join time, while present
	joins   int
	samples int
	present int // sum over ticks of nodes present
	time    float64

	Summary Summary
}

func (s *Stats) Init(*sim.Context) {
	*s = Stats{unique: make(map[int]bool), joined: make(map[int]float64)}
}

func (s *Stats) Tick(*sim.Context) {
	s.samples++
	s.present += len(s.joined)
}

func (s *Stats) OnJoin(t float64, node int) {
	s.unique[node] = true
	s.joined[node] = t
	s.joins++
}

func (s *Stats) OnLeave(t float64, node int) {
	if start, ok := s.joined[node]; ok {
		s.time += t - start
		delete(s.joined, node)
	}
}

func (s *Stats) Finish(ctx *sim.Context) {
	s.Summary = Summary{UniqueNodes: len(s.unique), Joins: s.joins}
	if s.joins > 0 {
		s.Summary.AvgNodeTime = s.time / float64(s.joins)
	}
	if s.samples > 0 {
		s.Summary.AvgNodes = float64(s.present) / float64(s.samples)
	}
	ctx.Log.WithField("unique_nodes", s.Summary.UniqueNodes).Debug("stats finished")
}

// dispatcher records events and forwards join and leave to the modules.
type dispatcher struct {
	stream  *event.Stream
	modules []Module
}

func (d *dispatcher) Append(e event.Event) {
	d.stream.Append(e)
	switch e.Kind {
	case event.KindJoin:
		for _, m := range d.modules {
			m.OnJoin(e.Time, e.Node)
		}
	case event.KindLeave:
		for _, m := range d.modules {
			m.OnLeave(e.Time, e.Node)
		}
	}
}
