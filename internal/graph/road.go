package graph

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Occupant is a vehicle handle on a road together with its position
// along the road, as of the vehicle's last reposition.
type Occupant struct {
	Vehicle  int
	Position float64 // metres from road start
}

// less orders occupants by position; equal positions put the lower vehicle id first.
func (o Occupant) less(other Occupant) bool {
	if o.Position != other.Position {
		return o.Position < other.Position
	}
	return o.Vehicle < other.Vehicle
}

// Road is a directed, speed-limited stretch between two intersections.
// The signal at its end is owned by the road and set by the end intersection.
type Road struct {
	ID         EdgeID
	Index      int
	From       int // start intersection index
	To         int // end intersection index
	Geometry   orb.LineString
	Length     float64 // metres
	SpeedLimit float64 // m/s
	Priority   int
	Weight     float64 // Length / SpeedLimit

	geomLength float64
	red        bool
	occupants  []Occupant // sorted ascending by position
}

// SetSignal sets the signal at the end of the road (true = red).
func (r *Road) SetSignal(red bool) { r.red = red }

// IsRed reports whether the signal at the end of the road is red.
func (r *Road) IsRed() bool { return r.red }

func (r *Road) indexOf(vehicle int) int {
	for i, o := range r.occupants {
		if o.Vehicle == vehicle {
			return i
		}
	}
	return -1
}

// InsertOrReposition places vehicle at position, removing any previous entry first.
func (r *Road) InsertOrReposition(vehicle int, position float64) {
	r.Remove(vehicle)
	o := Occupant{Vehicle: vehicle, Position: position}
	i := sort.Search(len(r.occupants), func(i int) bool { return o.less(r.occupants[i]) })
	r.occupants = append(r.occupants, Occupant{})
	copy(r.occupants[i+1:], r.occupants[i:])
	r.occupants[i] = o
}

// Remove drops vehicle from the occupancy list. It is a no-op if absent.
func (r *Road) Remove(vehicle int) {
	if i := r.indexOf(vehicle); i >= 0 {
		r.occupants = append(r.occupants[:i], r.occupants[i+1:]...)
	}
}

// VehicleAhead returns the occupant directly in front of vehicle, which must
// be listed at position. ok is false when vehicle is the foremost one or is
// not listed at that position.
func (r *Road) VehicleAhead(vehicle int, position float64) (o Occupant, ok bool) {
	key := Occupant{Vehicle: vehicle, Position: position}
	i := sort.Search(len(r.occupants), func(i int) bool { return key.less(r.occupants[i]) })
	if i == 0 || r.occupants[i-1] != key || i == len(r.occupants) {
		return Occupant{}, false
	}
	return r.occupants[i], true
}

// Foremost returns the occupant closest to the end of the road.
func (r *Road) Foremost() (Occupant, bool) {
	if len(r.occupants) == 0 {
		return Occupant{}, false
	}
	return r.occupants[len(r.occupants)-1], true
}

// Rearmost returns the occupant closest to the start of the road.
func (r *Road) Rearmost() (Occupant, bool) {
	if len(r.occupants) == 0 {
		return Occupant{}, false
	}
	return r.occupants[0], true
}

// Occupants returns a copy of the occupancy list, rearmost first.
func (r *Road) Occupants() []Occupant {
	out := make([]Occupant, len(r.occupants))
	copy(out, r.occupants)
	return out
}

// Sorted reports whether the occupancy list is in order.
func (r *Road) Sorted() bool {
	return sort.SliceIsSorted(r.occupants, func(i, j int) bool {
		return r.occupants[i].less(r.occupants[j])
	})
}

// PositionAt translates a distance along the road into a map coordinate by
// walking the polyline until the accumulated length passes the distance.
func (r *Road) PositionAt(distance float64) Coordinate {
	d := distance
	if r.geomLength > 0 && r.Length != r.geomLength {
		d = distance * r.geomLength / r.Length
	}

	var travelled float64
	for i := 1; i < len(r.Geometry); i++ {
		a, b := r.Geometry[i-1], r.Geometry[i]
		seg := planar.Distance(a, b)
		if seg == 0 {
			continue
		}
		if travelled+seg > d {
			f := (d - travelled) / seg
			if f < 0 {
				f = 0
			}
			return Coordinate{X: a.X() + f*(b.X()-a.X()), Y: a.Y() + f*(b.Y()-a.Y())}
		}
		travelled += seg
	}
	return FromPoint(r.Geometry[len(r.Geometry)-1])
}
