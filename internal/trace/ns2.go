// Package trace writes event streams in the movement trace formats of network
// simulators.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cxd309/mobility-engine/internal/event"
)

// WriteNS2 writes events as an NS-2 movement script: an initialisation
// section placing every node that joins at t=0, then one `$ns_ at` line per
// join, move and leave in start-time order. NS-2 node ids start at 0, so node
// n is written as $node_(n-1). Pauses produce no output.
func WriteNS2(w io.Writer, events []event.Event) error {
	sorted := make([]event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	bw := bufio.NewWriter(w)
	for _, e := range sorted {
		if e.Time > 0 {
			break
		}
		if e.Kind != event.KindJoin {
			continue
		}
		id := e.Node - 1
		fmt.Fprintf(bw, "$node_(%d) set X_ %s\n", id, num(e.At.X))
		fmt.Fprintf(bw, "$node_(%d) set Y_ %s\n", id, num(e.At.Y))
		fmt.Fprintf(bw, "$node_(%d) set Z_ 0.0\n", id)
	}

	for _, e := range sorted {
		id := e.Node - 1
		switch e.Kind {
		case event.KindMove:
			fmt.Fprintf(bw, "$ns_ at %s \"$node_(%d) setdest %s %s %s\"\n",
				num(e.Time), id, num(e.Move.To.X), num(e.Move.To.Y), num(e.Move.Velocity))
		case event.KindJoin:
			fmt.Fprintf(bw, "$ns_ at %s \"$node_(%d) on\"\n", num(e.Time), id)
		case event.KindLeave:
			fmt.Fprintf(bw, "$ns_ at %s \"$node_(%d) off\"\n", num(e.Time), id)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing ns-2 trace: %w", err)
	}
	return nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
