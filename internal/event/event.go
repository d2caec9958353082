// Package event defines the node presence and movement records produced by a
// simulation run.
package event

import (
	"fmt"
	"math"
	"sort"

	"github.com/cxd309/mobility-engine/internal/graph"
)

// Kind distinguishes the four event types.
type Kind string

const (
	KindJoin  Kind = "join"
	KindMove  Kind = "move"
	KindPause Kind = "pause"
	KindLeave Kind = "leave"
)

// Movement carries the Move-only fields.
type Movement struct {
	To       graph.Coordinate `json:"to"`
	Velocity float64          `json:"velocity"` // m/s
}

// Event is an immutable, timestamped record about one node.
type Event struct {
	Kind     Kind             `json:"kind"`
	Node     int              `json:"node"`
	Time     float64          `json:"time"`     // seconds
	Duration float64          `json:"duration"` // seconds
	At       graph.Coordinate `json:"at"`
	Move     *Movement        `json:"move,omitempty"`
}

// End returns the time at which the event is over.
func (e Event) End() float64 { return e.Time + e.Duration }

// Join creates a JOIN event: the node enters the simulation at the given position.
func Join(node int, t float64, at graph.Coordinate) Event {
	return Event{Kind: KindJoin, Node: node, Time: t, At: at}
}

// Leave creates a LEAVE event: the node exits the simulation.
func Leave(node int, t float64, at graph.Coordinate) Event {
	return Event{Kind: KindLeave, Node: node, Time: t, At: at}
}

// Pause creates a PAUSE event: the node stays at the position for duration.
func Pause(node int, t, duration float64, at graph.Coordinate) Event {
	return Event{Kind: KindPause, Node: node, Time: t, Duration: duration, At: at}
}

// Move creates a MOVE event from one position to another over duration.
func Move(node int, t, duration float64, from, to graph.Coordinate, velocity float64) Event {
	return Event{
		Kind:     KindMove,
		Node:     node,
		Time:     t,
		Duration: duration,
		At:       from,
		Move:     &Movement{To: to, Velocity: velocity},
	}
}

// Distance returns the straight-line length of a move; zero for other kinds.
func (e Event) Distance() float64 {
	if e.Move == nil {
		return 0
	}
	return math.Hypot(e.Move.To.X-e.At.X, e.Move.To.Y-e.At.Y)
}

func (e Event) String() string {
	switch e.Kind {
	case KindMove:
		return fmt.Sprintf("%d time=%g, duration=%g move from (%g,%g) to (%g,%g)",
			e.Node, e.Time, e.Duration, e.At.X, e.At.Y, e.Move.To.X, e.Move.To.Y)
	default:
		return fmt.Sprintf("%d time=%g, duration=%g %s at (%g,%g)",
			e.Node, e.Time, e.Duration, e.Kind, e.At.X, e.At.Y)
	}
}

// Sink receives events as they are produced.
type Sink interface {
	Append(e Event)
}

// Stream is an append-only in-memory Sink.
type Stream struct {
	events []Event
}

// Append records e.
func (s *Stream) Append(e Event) { s.events = append(s.events, e) }

// Len returns the number of recorded events.
func (s *Stream) Len() int { return len(s.events) }

// Events returns the events in emission order.
func (s *Stream) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByNode returns the events grouped by node id. Within a node, emission order
// is kept, which is chronological.
func (s *Stream) ByNode() []Event {
	out := s.Events()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}

// ByTime returns the events ordered by start time; ties keep emission order.
func (s *Stream) ByTime() []Event {
	out := s.Events()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Validate checks that each node's events are monotonic in time and contiguous:
// every event starts exactly where the previous one of the same node ended.
func Validate(events []Event) error {
	last := make(map[int]Event)
	for i, e := range events {
		if e.Duration < 0 {
			return fmt.Errorf("event %d (%s): negative duration", i, e)
		}
		prev, ok := last[e.Node]
		if ok && prev.End() != e.Time {
			return fmt.Errorf("event %d (%s): starts at %g but previous event of node %d ends at %g",
				i, e, e.Time, e.Node, prev.End())
		}
		if ok && prev.Kind == KindLeave {
			return fmt.Errorf("event %d (%s): node %d already left", i, e, e.Node)
		}
		last[e.Node] = e
	}
	return nil
}
