// Package summary renders a human-readable digest of a parsed run for the
// terminal: run totals followed by one line per time step.
package summary

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"solverlog/pkg/simlog"
)

const fallbackWidth = 80

// width returns the terminal width when w is a terminal, else fallbackWidth.
func width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallbackWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return fallbackWidth
	}
	return cols
}

// Write prints the digest of sim to w.
func Write(w io.Writer, sim *simlog.Simulation) error {
	iterations := 0
	leaves := 0
	for _, ts := range sim.TimeSteps {
		iterations += len(ts.Iterations)
		for _, it := range ts.Iterations {
			leaves += len(it.Convergence)
		}
	}

	if _, err := fmt.Fprintf(w, "time steps: %d, iterations: %d, convergence records: %d\n",
		len(sim.TimeSteps), iterations, leaves); err != nil {
		return err
	}
	if sim.ExecutionTime != nil {
		if _, err := fmt.Fprintf(w, "execution time: %g s\n", *sim.ExecutionTime); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, "execution time: unknown (no run-end line; the last in-progress step is not included)"); err != nil {
			return err
		}
	}

	if len(sim.TimeSteps) == 0 {
		return nil
	}

	header := fmt.Sprintf("%6s  %12s  %12s  %6s  %10s  %13s", "step", "t", "dt", "iters", "cpu [s]", "worst |dx|/|x|")
	cols := width(w)
	if _, err := fmt.Fprintln(w, clip(header, cols)); err != nil {
		return err
	}

	for _, ts := range sim.TimeSteps {
		line := fmt.Sprintf("%6d  %12g  %12g  %6d  %10s  %13s",
			ts.Number, ts.T, ts.DT, len(ts.Iterations),
			optCell(ts.CPUTime), worstRelative(&ts))
		if _, err := fmt.Fprintln(w, clip(line, cols)); err != nil {
			return err
		}
	}
	return nil
}

// worstRelative reports the largest final relative convergence of the step's
// iterations, "-" when the step carries no convergence records.
func worstRelative(ts *simlog.TimeStep) string {
	worst := -1.0
	for _, it := range ts.Iterations {
		for _, cc := range it.Convergence {
			if cc.DxRelative > worst {
				worst = cc.DxRelative
			}
		}
	}
	if worst < 0 {
		return "-"
	}
	return fmt.Sprintf("%g", worst)
}

func optCell(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}

func clip(s string, cols int) string {
	if cols <= 0 || len(s) <= cols {
		return s
	}
	return strings.TrimRight(s[:cols], " ")
}
