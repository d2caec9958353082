// Package loader reads road networks and points of interest from the plain
// text formats produced by GIS exports.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/graph"
)

const (
	roadStart = "<Road>"
	roadEnd   = "</Road>"
)

// RoadClass is the speed limit and signal priority assigned to a road type.
type RoadClass struct {
	SpeedLimit float64 // m/s
	Priority   int
}

// ClassOf maps a road type code to its class: motorways and trunk roads
// (type ≤ 4) down to residential streets (type ≥ 10).
func ClassOf(roadType int) RoadClass {
	switch {
	case roadType <= 4:
		return RoadClass{SpeedLimit: 120 / 3.6, Priority: 4}
	case roadType <= 7:
		return RoadClass{SpeedLimit: 60 / 3.6, Priority: 3}
	case roadType <= 9:
		return RoadClass{SpeedLimit: 50 / 3.6, Priority: 2}
	default:
		return RoadClass{SpeedLimit: 30 / 3.6, Priority: 1}
	}
}

// segment is one `id type x1 y1 x2 y2` record.
type segment struct {
	id       int
	roadType int
	from, to orb.Point
}

// roadBuilder accumulates the segments of the current <Road> block.
type roadBuilder struct {
	data     graph.GraphData
	nodes    map[string]bool
	segments []segment
	count    int
}

// ReadRoadsFile opens path and parses it with ReadRoads.
func ReadRoadsFile(path string) (graph.GraphData, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.GraphData{}, fmt.Errorf("opening roads file: %w", err)
	}
	defer f.Close()

	data, err := ReadRoads(f)
	if err != nil {
		return graph.GraphData{}, fmt.Errorf("roads file %q: %w", path, err)
	}
	return data, nil
}

// ReadRoads parses a road geometry file. Each <Road>...</Road> block holds
// the consecutive segments of one road; the block becomes a directed edge from
// the first segment's start to the last segment's end plus the reversed
// mirror edge. Intersections are identified by their exact coordinates.
// Malformed records and degenerate roads are logged and skipped.
func ReadRoads(r io.Reader) (graph.GraphData, error) {
	b := &roadBuilder{nodes: make(map[string]bool)}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
		case roadStart:
			b.segments = b.segments[:0]
		case roadEnd:
			b.flush(line)
		default:
			s, err := parseSegment(text)
			if err != nil {
				log.WithFields(log.Fields{"line": line}).WithError(err).Warn("skipping road record")
				continue
			}
			b.segments = append(b.segments, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return graph.GraphData{}, fmt.Errorf("reading line %d: %w", line+1, err)
	}

	log.WithFields(log.Fields{
		"roads":         b.count,
		"intersections": len(b.data.Nodes),
	}).Info("road network loaded")
	return b.data, nil
}

func parseSegment(text string) (segment, error) {
	cols := strings.Fields(text)
	if len(cols) < 6 {
		return segment{}, fmt.Errorf("expected 6 columns, got %d", len(cols))
	}
	id, err := strconv.Atoi(cols[0])
	if err != nil {
		return segment{}, fmt.Errorf("road id: %w", err)
	}
	roadType, err := strconv.Atoi(cols[1])
	if err != nil {
		return segment{}, fmt.Errorf("road type: %w", err)
	}
	var xy [4]float64
	for i := range xy {
		if xy[i], err = strconv.ParseFloat(cols[i+2], 64); err != nil {
			return segment{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
	}
	return segment{
		id:       id,
		roadType: roadType,
		from:     orb.Point{xy[0], xy[1]},
		to:       orb.Point{xy[2], xy[3]},
	}, nil
}

// flush turns the buffered segments into a road and its mirror.
func (b *roadBuilder) flush(line int) {
	if len(b.segments) == 0 {
		log.WithFields(log.Fields{"line": line}).Warn("skipping empty road")
		return
	}
	first, last := b.segments[0], b.segments[len(b.segments)-1]

	geom := make([]graph.Coordinate, 0, len(b.segments)+1)
	geom = append(geom, graph.FromPoint(first.from))
	var length float64
	for _, s := range b.segments {
		geom = append(geom, graph.FromPoint(s.to))
		length += planar.Distance(s.from, s.to)
	}

	if first.from.Equal(last.to) || length == 0 {
		log.WithFields(log.Fields{"line": line, "road": last.id}).Warn("skipping degenerate road")
		return
	}
	u, v := b.node(first.from), b.node(last.to)

	class := ClassOf(last.roadType)
	id := fmt.Sprintf("%d.%d", last.id, b.count)
	b.data.Edges = append(b.data.Edges,
		graph.Edge{ID: id, U: u, V: v, Length: length, SpeedLimit: class.SpeedLimit, Priority: class.Priority, Geometry: geom},
		graph.Edge{ID: id + "r", U: v, V: u, Length: length, SpeedLimit: class.SpeedLimit, Priority: class.Priority, Geometry: lo.Reverse(slices.Clone(geom))},
	)
	b.count++
}

// node returns the id of the intersection at p, adding it on first sight.
func (b *roadBuilder) node(p orb.Point) graph.NodeID {
	id := strconv.FormatFloat(p.X(), 'g', -1, 64) + "_" + strconv.FormatFloat(p.Y(), 'g', -1, 64)
	if !b.nodes[id] {
		b.nodes[id] = true
		b.data.Nodes = append(b.data.Nodes, graph.Node{ID: id, Loc: graph.FromPoint(p)})
	}
	return id
}
