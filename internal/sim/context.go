// Package sim holds the per-run state threaded through every simulation call.
package sim

import (
	"sync"

	"github.com/iti/rngstream"
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/event"
)

// Context is constructed once per run and passed by reference. It replaces
// process-wide clock, random source and event list so that several
// simulations can run side by side.
type Context struct {
	Clock    float64 // seconds since recording started
	Step     float64 // seconds per tick
	Tick     int     // recording ticks completed
	Duration float64 // recording length, seconds
	Warmup   bool    // no events are recorded while set

	// RNG is the single random stream for every stochastic decision.
	// Draw order follows the tick and agent iteration order.
	RNG *rngstream.RngStream

	Sink event.Sink
	Log  *log.Entry
}

// NewContext returns a context seeded with seed, writing to sink.
func NewContext(step, duration float64, seed int64, sink event.Sink) *Context {
	return &Context{
		Step:     step,
		Duration: duration,
		RNG:      NewStream("simulation", seed),
		Sink:     sink,
		Log:      log.NewEntry(log.StandardLogger()),
	}
}

// Emit forwards e to the sink unless the run is warming up.
func (c *Context) Emit(e event.Event) {
	if c.Warmup || c.Sink == nil {
		return
	}
	c.Sink.Append(e)
}

// Advance moves the clock forward by one step.
func (c *Context) Advance() {
	c.Clock += c.Step
	c.Tick++
}

// streamMu guards the package seed of rngstream, which New reads and advances.
var streamMu sync.Mutex

// NewStream returns a named random stream whose sequence depends only on seed.
func NewStream(name string, seed int64) *rngstream.RngStream {
	streamMu.Lock()
	defer streamMu.Unlock()
	rngstream.SetPackageSeed(seedVector(seed))
	return rngstream.New(name)
}

// m2 is the modulus of the second generator component; every seed component
// must lie below it.
const m2 = 4294944443

// seedVector spreads seed over the six state components with splitmix64.
// Each component is in [1, m2), so the vector is always accepted.
func seedVector(seed int64) []uint64 {
	x := uint64(seed)
	out := make([]uint64, 6)
	for i := range out {
		x += 0x9e3779b97f4a7c15
		z := x
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		out[i] = z%(m2-1) + 1
	}
	return out
}
