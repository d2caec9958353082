//go:build js && wasm

// Command wasm exposes the mobility engine to the browser via WebAssembly.
// After loading, it registers a global JavaScript function:
//
//	runSimulation(jsonString[, format]) -> string | {error, stage}
//
// The input is a JSON-encoded SimulationInput. The result is the
// SimulationLog JSON, or an NS-2 movement script when format is "ns2".
// Failures return an object naming the stage that failed: "input",
// "simulation" or "output". Road and points files are not available in the
// browser, so the network must be given inline.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/engine"
	"github.com/cxd309/mobility-engine/internal/vehicle"
)

func main() {
	log.SetLevel(log.WarnLevel)
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	select {} // keep the WASM module alive until the page is closed
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return failure("input", errors.New("no input provided"))
	}
	format := engine.FormatJSON
	if len(args) > 1 && args[1].Type() == js.TypeString {
		format = args[1].String()
	}

	var input engine.SimulationInput
	if err := json.Unmarshal([]byte(args[0].String()), &input); err != nil {
		return failure("input", fmt.Errorf("invalid input JSON: %w", err))
	}
	simLog, err := engine.Run(input)
	if err != nil {
		return failure("simulation", err)
	}

	var out strings.Builder
	if err := engine.WriteLog(&out, format, simLog); err != nil {
		return failure("output", err)
	}
	return out.String()
}

func failure(stage string, err error) map[string]any {
	log.WithError(err).WithField("stage", stage).Warn("simulation request failed")
	return map[string]any{
		"error":    err.Error(),
		"stage":    stage,
		"no_route": errors.Is(err, vehicle.ErrNoRoute),
	}
}
