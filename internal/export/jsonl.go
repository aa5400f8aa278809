package export

import (
	"encoding/json"
	"fmt"
	"io"

	"solverlog/pkg/simlog"
)

// WriteJSONL writes one JSON object per convergence leaf, one per line.
// Absent values serialize as JSON null, keeping the key set identical across
// rows.
func WriteJSONL(w io.Writer, sim *simlog.Simulation) error {
	enc := json.NewEncoder(w)
	for row := range sim.Rows() {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("writing jsonl row: %w", err)
		}
	}
	return nil
}
