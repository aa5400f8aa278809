// Package report renders an HTML report of a parsed run: run totals, a
// per-step table and the slowest nonlinear iterations.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"solverlog/pkg/simlog"
)

// Markdown builds the markdown source of the report.
func Markdown(sim *simlog.Simulation) string {
	var b strings.Builder

	b.WriteString("# Solver run report\n\n")

	iterations := 0
	leaves := 0
	for _, ts := range sim.TimeSteps {
		iterations += len(ts.Iterations)
		for _, it := range ts.Iterations {
			leaves += len(it.Convergence)
		}
	}
	fmt.Fprintf(&b, "- time steps: %d\n", len(sim.TimeSteps))
	fmt.Fprintf(&b, "- nonlinear iterations: %d\n", iterations)
	fmt.Fprintf(&b, "- convergence records: %d\n", leaves)
	if sim.ExecutionTime != nil {
		fmt.Fprintf(&b, "- execution time: %g s\n", *sim.ExecutionTime)
	} else {
		b.WriteString("- execution time: unknown (log has no run-end line)\n")
	}
	b.WriteString("\n")

	if len(sim.TimeSteps) > 0 {
		b.WriteString("## Time steps\n\n")
		b.WriteString("| step | t | dt | iterations | cpu [s] | output [s] |\n")
		b.WriteString("|-----:|--:|---:|-----------:|--------:|-----------:|\n")
		for _, ts := range sim.TimeSteps {
			fmt.Fprintf(&b, "| %d | %g | %g | %d | %s | %s |\n",
				ts.Number, ts.T, ts.DT, len(ts.Iterations),
				cell(ts.CPUTime), cell(ts.OutputTime))
		}
		b.WriteString("\n")
	}

	if slowest := slowestIterations(sim, 5); len(slowest) > 0 {
		b.WriteString("## Slowest iterations\n\n")
		for _, s := range slowest {
			fmt.Fprintf(&b, "- step %d, iteration %d: %g s\n", s.step, s.iteration, s.cpuTime)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteHTML renders the report as a standalone sanitized HTML page.
func WriteHTML(w io.Writer, sim *simlog.Simulation) error {
	body := renderToHTML(Markdown(sim))
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Solver run report</title>
</head>
<body>
%s</body>
</html>
`, body)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

type slowIteration struct {
	step      int
	iteration int
	cpuTime   float64
}

// slowestIterations returns up to n iterations ordered by descending wall
// time, ties broken by step then iteration number for stable output.
func slowestIterations(sim *simlog.Simulation, n int) []slowIteration {
	var all []slowIteration
	for _, ts := range sim.TimeSteps {
		for _, it := range ts.Iterations {
			all = append(all, slowIteration{step: ts.Number, iteration: it.Number, cpuTime: it.CPUTime})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].cpuTime != all[j].cpuTime {
			return all[i].cpuTime > all[j].cpuTime
		}
		if all[i].step != all[j].step {
			return all[i].step < all[j].step
		}
		return all[i].iteration < all[j].iteration
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func cell(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}
