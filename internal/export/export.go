// Package export turns a parsed simulation into tabular output. One output
// row corresponds to one convergence measurement; the column set is
// simlog.Columns in all formats.
package export

import (
	"fmt"
	"io"
	"strconv"

	"solverlog/pkg/simlog"
)

// Writers maps a stream format name to its writer. SQLite is not listed here
// because it writes to a file path, not an io.Writer; see WriteSQLite.
var Writers = map[string]func(io.Writer, *simlog.Simulation) error{
	"csv":   WriteCSV,
	"jsonl": WriteJSONL,
}

// Formats lists every supported output format for usage messages.
func Formats() []string {
	return []string{"csv", "jsonl", "sqlite"}
}

// Write dispatches to the registered stream writer for format.
func Write(format string, w io.Writer, sim *simlog.Simulation) error {
	fn, ok := Writers[format]
	if !ok {
		return fmt.Errorf("unknown output format %q", format)
	}
	return fn(w, sim)
}

// formatValue renders one cell for text formats. Absent values render as the
// empty cell so every row keeps the full rectangular column set.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
