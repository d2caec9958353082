package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cxd309/mobility-engine/internal/trace"
)

// Output formats accepted by WriteLog.
const (
	FormatJSON = "json"
	FormatNS2  = "ns2"
)

// WriteLog writes simLog to w as a SimulationLog JSON document or an NS-2
// movement script.
func WriteLog(w io.Writer, format string, simLog SimulationLog) error {
	switch format {
	case FormatJSON, "":
		return json.NewEncoder(w).Encode(simLog)
	case FormatNS2:
		return trace.WriteNS2(w, simLog.Events)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
