// Command mobility-engine reads a SimulationInput from a JSON or YAML file
// argument (or JSON from stdin), runs the simulation, and writes the
// SimulationLog JSON or an NS-2 movement trace.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/mobility-engine/internal/engine"
)

func main() {
	format := flag.String("format", engine.FormatJSON, "output format: json or ns2")
	output := flag.String("o", "", "output file (default stdout)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	input, err := readInput(flag.Arg(0))
	if err != nil {
		log.WithError(err).Fatal("error reading input")
	}

	simLog, err := engine.Run(input)
	if err != nil {
		log.WithError(err).Fatal("simulation error")
	}

	if *output == "" {
		err = engine.WriteLog(os.Stdout, *format, simLog)
	} else {
		err = writeFile(*output, *format, simLog)
	}
	if err != nil {
		log.WithError(err).WithField("file", *output).Fatal("error writing output")
	}
}

// writeFile writes simLog to path. A failed close is reported like a failed
// write.
func writeFile(path, format string, simLog engine.SimulationLog) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := engine.WriteLog(f, format, simLog); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readInput(path string) (engine.SimulationInput, error) {
	if path != "" {
		return engine.LoadInput(path)
	}
	var input engine.SimulationInput
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return input, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("invalid input JSON: %w", err)
	}
	return input, nil
}
