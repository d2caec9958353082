// Package graph provides the road network arena, shortest-path routing and
// intersection signal control for the mobility simulation.
package graph

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	log "github.com/sirupsen/logrus"
)

// NodeID, EdgeID are string aliases used as input identifiers.
type (
	NodeID = string
	EdgeID = string
)

// Coordinate is a 2D position in metres.
type Coordinate struct {
	X float64 `json:"x"` // metres
	Y float64 `json:"y"` // metres
}

// Point converts the coordinate to an orb point.
func (c Coordinate) Point() orb.Point { return orb.Point{c.X, c.Y} }

// FromPoint converts an orb point to a Coordinate.
func FromPoint(p orb.Point) Coordinate { return Coordinate{X: p.X(), Y: p.Y()} }

// Node is an intersection in the serialisable network description.
type Node struct {
	ID  NodeID     `json:"node_id"`
	Loc Coordinate `json:"loc"`
}

// Edge is a directed road between two nodes.
// Geometry is optional: when empty the road is the straight segment U→V,
// otherwise it is the polyline through the given points (endpoints included).
// Length is optional as well and defaults to the geometric length.
type Edge struct {
	ID         EdgeID       `json:"edge_id"`
	U          NodeID       `json:"u"`
	V          NodeID       `json:"v"`
	Length     float64      `json:"length,omitempty"` // metres
	SpeedLimit float64      `json:"speed_limit"`      // m/s
	Priority   int          `json:"priority,omitempty"`
	Geometry   []Coordinate `json:"geometry,omitempty"`
}

// GraphData is the serialisable input representation of a road network.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Options controls construction-time post-processing.
type Options struct {
	// SignalMinIncoming is the number of incoming roads from which an
	// intersection is signal controlled.
	SignalMinIncoming int
	// SignalCycle is the total cycle length in ticks shared among the phases.
	SignalCycle int
}

// DefaultOptions returns the signal settings used when none are configured.
func DefaultOptions() Options {
	return Options{SignalMinIncoming: 4, SignalCycle: 120}
}

// Graph is the road network. Intersections and roads live in arenas and are
// addressed by their index, which stays stable for the lifetime of the graph.
type Graph struct {
	nodes   []*Intersection
	roads   []*Road
	nodeMap map[NodeID]int
	roadMap map[EdgeID]int
}

// NewGraph builds a Graph from GraphData, returning an error if any node or edge
// references are invalid. Intersections outside the largest strongly
// connected component are dropped together with their roads.
func NewGraph(data GraphData, opts Options) (*Graph, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	keep := largestComponent(data)
	if removed := len(data.Nodes) - len(keep); removed > 0 {
		log.WithFields(log.Fields{
			"nodes":   len(data.Nodes),
			"removed": removed,
		}).Info("pruned intersections outside the largest strongly connected component")
	}

	g := &Graph{
		nodeMap: make(map[NodeID]int, len(keep)),
		roadMap: make(map[EdgeID]int, len(data.Edges)),
	}
	for _, n := range data.Nodes {
		if !keep[n.ID] {
			log.WithField("node_id", n.ID).Debug("removed intersection")
			continue
		}
		g.addIntersection(n)
	}
	for _, e := range data.Edges {
		if !keep[e.U] || !keep[e.V] {
			continue
		}
		if err := g.addRoad(e); err != nil {
			return nil, err
		}
	}
	g.deriveSignals(opts)
	return g, nil
}

func validate(data GraphData) error {
	nodes := make(map[NodeID]struct{}, len(data.Nodes))
	for _, n := range data.Nodes {
		if _, exists := nodes[n.ID]; exists {
			return fmt.Errorf("node %q already exists", n.ID)
		}
		nodes[n.ID] = struct{}{}
	}
	edges := make(map[EdgeID]struct{}, len(data.Edges))
	for _, e := range data.Edges {
		if _, exists := edges[e.ID]; exists {
			return fmt.Errorf("edge %q already exists", e.ID)
		}
		edges[e.ID] = struct{}{}
		if _, ok := nodes[e.U]; !ok {
			return fmt.Errorf("edge %q: source node %q not found", e.ID, e.U)
		}
		if _, ok := nodes[e.V]; !ok {
			return fmt.Errorf("edge %q: target node %q not found", e.ID, e.V)
		}
		if e.SpeedLimit <= 0 {
			return fmt.Errorf("edge %q: speed limit must be positive, got %v", e.ID, e.SpeedLimit)
		}
		if e.Length < 0 {
			return fmt.Errorf("edge %q: negative length %v", e.ID, e.Length)
		}
		if len(e.Geometry) == 1 {
			return fmt.Errorf("edge %q: geometry needs at least two points", e.ID)
		}
	}
	return nil
}

func (g *Graph) addIntersection(n Node) {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, &Intersection{ID: n.ID, Index: idx, Loc: n.Loc})
	g.nodeMap[n.ID] = idx
}

func (g *Graph) addRoad(e Edge) error {
	from := g.nodes[g.nodeMap[e.U]]
	to := g.nodes[g.nodeMap[e.V]]

	var geom orb.LineString
	if len(e.Geometry) == 0 {
		geom = orb.LineString{from.Loc.Point(), to.Loc.Point()}
	} else {
		geom = make(orb.LineString, len(e.Geometry))
		for i, c := range e.Geometry {
			geom[i] = c.Point()
		}
	}
	geomLength := planar.Length(geom)

	length := e.Length
	if length == 0 {
		length = geomLength
	}
	if length <= 0 {
		return fmt.Errorf("edge %q: road has zero length", e.ID)
	}
	priority := e.Priority
	if priority <= 0 {
		priority = 1
	}

	idx := len(g.roads)
	r := &Road{
		ID:         e.ID,
		Index:      idx,
		From:       from.Index,
		To:         to.Index,
		Geometry:   geom,
		Length:     length,
		SpeedLimit: e.SpeedLimit,
		Priority:   priority,
		Weight:     length / e.SpeedLimit,
		geomLength: geomLength,
	}
	g.roads = append(g.roads, r)
	g.roadMap[e.ID] = idx
	from.Out = append(from.Out, idx)
	to.In = append(to.In, idx)
	return nil
}

// NumIntersections returns the number of intersections kept after pruning.
func (g *Graph) NumIntersections() int { return len(g.nodes) }

// NumRoads returns the number of roads kept after pruning.
func (g *Graph) NumRoads() int { return len(g.roads) }

// Intersection returns the intersection at index i.
func (g *Graph) Intersection(i int) *Intersection { return g.nodes[i] }

// Intersections returns all intersections in index order.
func (g *Graph) Intersections() []*Intersection { return g.nodes }

// Road returns the road at index i.
func (g *Graph) Road(i int) *Road { return g.roads[i] }

// Roads returns all roads in index order.
func (g *Graph) Roads() []*Road { return g.roads }

// IntersectionByID looks up an intersection by its input ID.
func (g *Graph) IntersectionByID(id NodeID) (*Intersection, error) {
	i, ok := g.nodeMap[id]
	if !ok {
		return nil, fmt.Errorf("intersection %q not found", id)
	}
	return g.nodes[i], nil
}

// RoadByID looks up a road by its input ID.
func (g *Graph) RoadByID(id EdgeID) (*Road, error) {
	i, ok := g.roadMap[id]
	if !ok {
		return nil, fmt.Errorf("road %q not found", id)
	}
	return g.roads[i], nil
}

// SetSpeedLimit changes a road's speed limit and its routing weight.
func (g *Graph) SetSpeedLimit(road int, limit float64) error {
	if limit <= 0 {
		return fmt.Errorf("road %q: speed limit must be positive, got %v", g.roads[road].ID, limit)
	}
	r := g.roads[road]
	r.SpeedLimit = limit
	r.Weight = r.Length / limit
	return nil
}

// Bound returns the bounding box of all road geometry.
func (g *Graph) Bound() orb.Bound {
	if len(g.roads) == 0 {
		if len(g.nodes) == 0 {
			return orb.Bound{}
		}
		b := g.nodes[0].Loc.Point().Bound()
		for _, n := range g.nodes[1:] {
			b = b.Extend(n.Loc.Point())
		}
		return b
	}
	b := g.roads[0].Geometry.Bound()
	for _, r := range g.roads[1:] {
		b = b.Union(r.Geometry.Bound())
	}
	return b
}
