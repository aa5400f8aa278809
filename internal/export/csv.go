package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"solverlog/pkg/simlog"
)

// WriteCSV writes one header row of prefixed column names followed by one
// data row per convergence leaf.
func WriteCSV(w io.Writer, sim *simlog.Simulation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(simlog.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(simlog.Columns))
	for row := range sim.Rows() {
		for i, col := range simlog.Columns {
			record[i] = formatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
