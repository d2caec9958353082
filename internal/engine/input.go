package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cxd309/mobility-engine/internal/loader"
)

// LoadInput reads a SimulationInput from a .json, .yaml or .yml file.
// roads_file and points_file are resolved relative to the input file.
func LoadInput(path string) (SimulationInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimulationInput{}, fmt.Errorf("reading input: %w", err)
	}

	var input SimulationInput
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		input, err = DecodeYAML(data)
	case ".json", "":
		err = json.Unmarshal(data, &input)
	default:
		return SimulationInput{}, fmt.Errorf("input %q: unsupported extension %q", path, ext)
	}
	if err != nil {
		return SimulationInput{}, fmt.Errorf("input %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	input.RoadsFile = resolve(dir, input.RoadsFile)
	input.PointsFile = resolve(dir, input.PointsFile)
	return input, nil
}

// DecodeYAML decodes a YAML document with the same field names as the JSON
// input. The document is re-encoded as JSON so that the custom vehicle
// decoding applies unchanged.
func DecodeYAML(data []byte) (SimulationInput, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return SimulationInput{}, fmt.Errorf("parsing yaml: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return SimulationInput{}, fmt.Errorf("converting yaml: %w", err)
	}
	var input SimulationInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return SimulationInput{}, err
	}
	return input, nil
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// loadSources reads the roads and points files named by the input.
func (in *SimulationInput) loadSources() error {
	if in.RoadsFile != "" {
		if in.GraphData != nil {
			return fmt.Errorf("invalid input: graph_data and roads_file are mutually exclusive")
		}
		data, err := loader.ReadRoadsFile(in.RoadsFile)
		if err != nil {
			return err
		}
		in.GraphData = &data
	}
	if in.PointsFile != "" {
		points, err := loader.ReadPointsFile(in.PointsFile)
		if err != nil {
			return err
		}
		in.Points = append(in.Points, points...)
	}
	return nil
}
