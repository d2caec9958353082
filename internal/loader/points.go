package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/graph"
)

// Point is a point of interest attracting trips in proportion to Weight.
type Point struct {
	Loc    graph.Coordinate `json:"loc"`
	Weight int              `json:"weight"`
}

// ReadPointsFile opens path and parses it with ReadPoints.
func ReadPointsFile(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening points file: %w", err)
	}
	defer f.Close()

	points, err := ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("points file %q: %w", path, err)
	}
	return points, nil
}

// ReadPoints parses `x y weight` lines. Malformed lines and non-positive
// weights are logged and skipped.
func ReadPoints(r io.Reader) ([]Point, error) {
	var points []Point
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		p, err := parsePoint(text)
		if err != nil {
			log.WithFields(log.Fields{"line": line}).WithError(err).Warn("skipping point of interest")
			continue
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", line+1, err)
	}
	return points, nil
}

func parsePoint(text string) (Point, error) {
	cols := strings.Fields(text)
	if len(cols) < 3 {
		return Point{}, fmt.Errorf("expected 3 columns, got %d", len(cols))
	}
	x, err := strconv.ParseFloat(cols[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(cols[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("y: %w", err)
	}
	w, err := strconv.Atoi(cols[2])
	if err != nil {
		return Point{}, fmt.Errorf("weight: %w", err)
	}
	if w <= 0 {
		return Point{}, fmt.Errorf("weight must be positive, got %d", w)
	}
	return Point{Loc: graph.Coordinate{X: x, Y: y}, Weight: w}, nil
}

// Destinations maps every point to its nearest intersection of g and returns
// the weighted destination pool.
func Destinations(g *graph.Graph, points []Point) (*graph.Destinations, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points of interest")
	}
	d := &graph.Destinations{}
	for _, p := range points {
		n, err := g.Nearest(p.Loc)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"x":            p.Loc.X,
			"y":            p.Loc.Y,
			"intersection": n.ID,
			"weight":       p.Weight,
		}).Debug("point of interest")
		d.Add(n.Index, p.Weight)
	}
	return d, nil
}
