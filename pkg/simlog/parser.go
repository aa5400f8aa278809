package simlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// rankPrefix is the marker parallel solver runs prepend to every log line.
const rankPrefix = "[0] "

// Options controls a single parsing pass. The zero value parses the whole
// input without preprocessing.
type Options struct {
	// MaxTimeSteps stops parsing as soon as a time-step-start line carries a
	// step number greater than this. 0 means unbounded. Checked only at step
	// boundaries; the step that triggers the stop is excluded from the result.
	MaxTimeSteps int

	// MaxLines stops parsing at the first time-step-start line after more
	// than this many lines have been read. 0 means unbounded. Like
	// MaxTimeSteps this is cooperative, not preemptive: lines past the limit
	// are still consumed until the next step boundary.
	MaxLines int

	// StripRankPrefix removes a leading "[0] " from each line before
	// classification, normalizing multi-process interleaved logs to a single
	// logical stream.
	StripRankPrefix bool
}

// parseState accumulates the scalar values observed since the last iteration
// boundary. The whole record resets to absent when an Iteration is finalized,
// so a value never leaks into a later iteration.
type parseState struct {
	assemblyTime        *float64
	dirichletBCTime     *float64
	linearSolverTime    *float64
	phaseFieldParameter *float64
	convergence         []ComponentConvergence
}

func (st *parseState) reset() {
	*st = parseState{}
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, opts Options) (*Simulation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads r line by line and assembles the run record.
//
// Unrecognized lines are ignored. A recognized line whose numeric fields fail
// conversion aborts parsing with a *ParseError; in that case the Simulation
// assembled so far is still returned alongside the error, so callers wanting
// best-effort output can use the partial tree.
//
// A log that ends without an "Execution took" line never finalizes its last
// in-progress time step (see the package documentation).
func Parse(r io.Reader, opts Options) (*Simulation, error) {
	sim := &Simulation{}

	// ts starts as a synthetic placeholder for any lines that arrive before
	// the first "Time stepping" boundary. It is discarded, never finalized.
	ts := TimeStep{Number: 0}
	active := false

	st := &parseState{}
	linesRead := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		// Tolerate CRLF logs; a stray \r would poison the trailing ".*"
		// capture of the time-step-start grammar.
		line := strings.TrimSuffix(scanner.Text(), "\r")
		linesRead++
		if opts.StripRankPrefix {
			line = strings.TrimPrefix(line, rankPrefix)
		}

		m, ok, err := classify(line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.LineNumber = linesRead
			}
			return sim, err
		}
		if !ok {
			continue
		}

		switch m.kind {
		case lineIteration:
			// Boundary: everything accumulated since the previous boundary
			// belongs to this iteration.
			ts.Iterations = append(ts.Iterations, Iteration{
				Number:              m.ints[0],
				AssemblyTime:        st.assemblyTime,
				DirichletBCTime:     st.dirichletBCTime,
				LinearSolverTime:    st.linearSolverTime,
				CPUTime:             m.floats[0],
				PhaseFieldParameter: st.phaseFieldParameter,
				Convergence:         st.convergence,
			})
			st.reset()

		case lineAssemblyTime:
			v := m.floats[0]
			st.assemblyTime = &v

		case lineDirichletBCTime:
			v := m.floats[0]
			st.dirichletBCTime = &v

		case lineLinearSolverTime:
			v := m.floats[0]
			st.linearSolverTime = &v

		case linePhaseFieldParameter:
			v := m.floats[0]
			st.phaseFieldParameter = &v

		case lineComponentConvergence:
			st.convergence = append(st.convergence, ComponentConvergence{
				Component:  m.ints[0],
				Dx:         m.floats[0],
				X:          m.floats[1],
				DxRelative: m.floats[2],
			})

		case lineConvergence:
			st.convergence = append(st.convergence, ComponentConvergence{
				Component:  0,
				Dx:         m.floats[0],
				X:          m.floats[1],
				DxRelative: m.floats[2],
			})

		case lineTimeStepStart:
			if active {
				sim.TimeSteps = append(sim.TimeSteps, ts)
			}
			ts = TimeStep{Number: m.ints[0], T: m.floats[0], DT: m.floats[1]}
			active = true
			if (opts.MaxTimeSteps > 0 && ts.Number > opts.MaxTimeSteps) ||
				(opts.MaxLines > 0 && linesRead > opts.MaxLines) {
				// Cooperative stop: the just-started step stays unfinalized.
				return sim, nil
			}

		case lineSolutionTime:
			v := m.floats[0]
			ts.SolutionTime = &v

		case lineOutputTime:
			v := m.floats[0]
			ts.OutputTime = &v

		case lineTimeStepFinished:
			v := m.floats[0]
			ts.CPUTime = &v

		case lineExecutionTime:
			v := m.floats[0]
			sim.ExecutionTime = &v
			if active {
				sim.TimeSteps = append(sim.TimeSteps, ts)
				active = false
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return sim, fmt.Errorf("reading log: %w", err)
	}
	return sim, nil
}
