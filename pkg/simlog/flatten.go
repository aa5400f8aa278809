package simlog

import "iter"

// Row is one denormalized convergence measurement. Keys are slash-joined
// paths (for example "time_step/iteration/cpu_time") so downstream consumers
// can reconstruct the hierarchy from flat column names. Every Row carries the
// full column set; an absent optional value is present with a nil value,
// never omitted.
type Row map[string]any

// Columns lists every Row key in stable output order, outermost prefix first.
var Columns = []string{
	"execution_time",
	"time_step/number",
	"time_step/t",
	"time_step/dt",
	"time_step/cpu_time",
	"time_step/output_time",
	"time_step/solution_time",
	"time_step/iteration/number",
	"time_step/iteration/assembly_time",
	"time_step/iteration/dirichlet_bc_time",
	"time_step/iteration/linear_solver_time",
	"time_step/iteration/cpu_time",
	"time_step/iteration/phase_field_parameter",
	"time_step/iteration/component_convergence/number",
	"time_step/iteration/component_convergence/dx",
	"time_step/iteration/component_convergence/x",
	"time_step/iteration/component_convergence/dx_relative",
}

// Rows walks the tree depth-first and lazily yields one Row per
// ComponentConvergence leaf. The sequence is single-pass; iterations or time
// steps without convergence records contribute no rows.
func (s *Simulation) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for ti := range s.TimeSteps {
			ts := &s.TimeSteps[ti]
			for ii := range ts.Iterations {
				it := &ts.Iterations[ii]
				for ci := range it.Convergence {
					if !yield(s.row(ts, it, &it.Convergence[ci])) {
						return
					}
				}
			}
		}
	}
}

func (s *Simulation) row(ts *TimeStep, it *Iteration, cc *ComponentConvergence) Row {
	return Row{
		"execution_time":                            optional(s.ExecutionTime),
		"time_step/number":                          ts.Number,
		"time_step/t":                               ts.T,
		"time_step/dt":                              ts.DT,
		"time_step/cpu_time":                        optional(ts.CPUTime),
		"time_step/output_time":                     optional(ts.OutputTime),
		"time_step/solution_time":                   optional(ts.SolutionTime),
		"time_step/iteration/number":                it.Number,
		"time_step/iteration/assembly_time":         optional(it.AssemblyTime),
		"time_step/iteration/dirichlet_bc_time":     optional(it.DirichletBCTime),
		"time_step/iteration/linear_solver_time":    optional(it.LinearSolverTime),
		"time_step/iteration/cpu_time":              it.CPUTime,
		"time_step/iteration/phase_field_parameter": optional(it.PhaseFieldParameter),
		"time_step/iteration/component_convergence/number":      cc.Component,
		"time_step/iteration/component_convergence/dx":          cc.Dx,
		"time_step/iteration/component_convergence/x":           cc.X,
		"time_step/iteration/component_convergence/dx_relative": cc.DxRelative,
	}
}

// optional maps a missing pointer to an explicit nil row value.
func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
