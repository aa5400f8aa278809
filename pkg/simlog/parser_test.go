package simlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseLines(t *testing.T, opts Options, lines ...string) *Simulation {
	t.Helper()
	sim, err := Parse(strings.NewReader(strings.Join(lines, "\n")), opts)
	require.NoError(t, err)
	return sim
}

func TestParse_SingleStepSingleIteration(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Execution took 1.0 s",
	)

	require.Len(t, sim.TimeSteps, 1)
	ts := sim.TimeSteps[0]
	require.Equal(t, 1, ts.Number)
	require.Equal(t, 0.1, ts.T)
	require.Equal(t, 0.01, ts.DT)

	require.Len(t, ts.Iterations, 1)
	it := ts.Iterations[0]
	require.Equal(t, 1, it.Number)
	require.Equal(t, 0.05, it.CPUTime)

	// No timing lines appeared before the boundary, so every optional
	// scalar must be absent.
	require.Nil(t, it.AssemblyTime)
	require.Nil(t, it.DirichletBCTime)
	require.Nil(t, it.LinearSolverTime)
	require.Nil(t, it.PhaseFieldParameter)
	require.Empty(t, it.Convergence)

	require.NotNil(t, sim.ExecutionTime)
	require.Equal(t, 1.0, *sim.ExecutionTime)
}

func TestParse_IterationCollectsPendingScalars(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Assembly took 0.01 s",
		"info: [time] Applying Dirichlet BCs took 0.002 s",
		"info: [time] Linear solver took 0.03 s",
		"info: The min of d is 0.98",
		"info: Convergence criterion: |dx|=1.0e-03, |x|=2.0e+00, |dx|/|x|=5.0e-04",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Execution took 1.0 s",
	)

	require.Len(t, sim.TimeSteps, 1)
	require.Len(t, sim.TimeSteps[0].Iterations, 1)
	it := sim.TimeSteps[0].Iterations[0]
	require.NotNil(t, it.AssemblyTime)
	require.Equal(t, 0.01, *it.AssemblyTime)
	require.NotNil(t, it.DirichletBCTime)
	require.Equal(t, 0.002, *it.DirichletBCTime)
	require.NotNil(t, it.LinearSolverTime)
	require.Equal(t, 0.03, *it.LinearSolverTime)
	require.NotNil(t, it.PhaseFieldParameter)
	require.Equal(t, 0.98, *it.PhaseFieldParameter)
	require.Len(t, it.Convergence, 1)
	require.Equal(t, 0, it.Convergence[0].Component)
	require.Equal(t, 1.0e-03, it.Convergence[0].Dx)
}

func TestParse_AccumulatorResetAtBoundary(t *testing.T) {
	// Assembly appears only before the first iteration; the second iteration
	// must see it as absent, never the stale value.
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Assembly took 0.01 s",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Iteration #2 took 0.04 s",
		"info: [time] Execution took 1.0 s",
	)

	its := sim.TimeSteps[0].Iterations
	require.Len(t, its, 2)
	require.NotNil(t, its[0].AssemblyTime)
	require.Nil(t, its[1].AssemblyTime)
	require.Empty(t, its[1].Convergence)
}

func TestParse_LastWriteWinsBeforeBoundary(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Assembly took 0.01 s",
		"info: [time] Assembly took 0.02 s",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Execution took 1.0 s",
	)

	it := sim.TimeSteps[0].Iterations[0]
	require.NotNil(t, it.AssemblyTime)
	require.Equal(t, 0.02, *it.AssemblyTime)
}

func TestParse_ConvergenceAttachesToNextIteration(t *testing.T) {
	// A convergence line before any iteration boundary in a step belongs to
	// the next iteration created, even across the step boundary.
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: Convergence criterion, component 0: |dx|=1.0e-02, |x|=1.0e+00, |dx|/|x|=1.0e-02",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.01",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Execution took 1.0 s",
	)

	require.Len(t, sim.TimeSteps, 2)
	require.Empty(t, sim.TimeSteps[0].Iterations)
	require.Len(t, sim.TimeSteps[1].Iterations, 1)
	require.Len(t, sim.TimeSteps[1].Iterations[0].Convergence, 1)
	require.Equal(t, 1.0e-02, sim.TimeSteps[1].Iterations[0].Convergence[0].Dx)
}

func TestParse_TimeStepFields(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Solving process #0 took 0.04 s in time step #1",
		"info: [time] Output of timestep 1 took 0.002 s",
		"info: [time] Time step #1 took 0.08 s",
		"info: [time] Execution took 1.0 s",
	)

	ts := sim.TimeSteps[0]
	require.NotNil(t, ts.SolutionTime)
	require.Equal(t, 0.04, *ts.SolutionTime)
	require.NotNil(t, ts.OutputTime)
	require.Equal(t, 0.002, *ts.OutputTime)
	require.NotNil(t, ts.CPUTime)
	require.Equal(t, 0.08, *ts.CPUTime)
}

func TestParse_PlaceholderStepDiscarded(t *testing.T) {
	// Lines before the first "Time stepping" boundary land in a synthetic
	// placeholder step that never reaches the result.
	sim := parseLines(t, Options{},
		"info: [time] Iteration #1 took 0.05 s",
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Iteration #1 took 0.06 s",
		"info: [time] Execution took 1.0 s",
	)

	require.Len(t, sim.TimeSteps, 1)
	require.Equal(t, 1, sim.TimeSteps[0].Number)
	require.Len(t, sim.TimeSteps[0].Iterations, 1)
	require.Equal(t, 0.06, sim.TimeSteps[0].Iterations[0].CPUTime)
}

func TestParse_StepNumbersNonDecreasing(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.1",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.1",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.05",
		"info: === Time stepping at step #3 and time 0.25 with step size 0.05",
		"info: [time] Execution took 1.0 s",
	)

	prev := 0
	for _, ts := range sim.TimeSteps {
		require.GreaterOrEqual(t, ts.Number, prev)
		prev = ts.Number
	}
}

func TestParse_MaxTimeSteps(t *testing.T) {
	sim := parseLines(t, Options{MaxTimeSteps: 2},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: === Time stepping at step #3 and time 0.3 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: [time] Execution took 1.0 s",
	)

	// Step 3 triggers the stop at its start boundary and is excluded.
	require.Len(t, sim.TimeSteps, 2)
	for _, ts := range sim.TimeSteps {
		require.LessOrEqual(t, ts.Number, 2)
	}
	// The execution line was never reached.
	require.Nil(t, sim.ExecutionTime)
}

func TestParse_MaxLines(t *testing.T) {
	sim := parseLines(t, Options{MaxLines: 3},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: [time] Iteration #2 took 0.01 s",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: [time] Execution took 1.0 s",
	)

	// The limit is checked only at the next step boundary: step 1 keeps all
	// its iterations even though they lie past line 3, and step 2 is dropped.
	require.Len(t, sim.TimeSteps, 1)
	require.Equal(t, 1, sim.TimeSteps[0].Number)
	require.Len(t, sim.TimeSteps[0].Iterations, 2)
}

func TestParse_NoExecutionLineDropsLastStep(t *testing.T) {
	// Kept quirk: without the run-end line the in-progress step is lost.
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
	)

	require.Len(t, sim.TimeSteps, 1)
	require.Equal(t, 1, sim.TimeSteps[0].Number)
}

func TestParse_StripRankPrefix(t *testing.T) {
	lines := []string{
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: [time] Assembly took 0.01 s",
		"info: [time] Iteration #1 took 0.05 s",
		"info: [time] Execution took 1.0 s",
	}
	prefixed := make([]string, len(lines))
	for i, l := range lines {
		prefixed[i] = "[0] " + l
	}

	plain := parseLines(t, Options{}, lines...)
	stripped := parseLines(t, Options{StripRankPrefix: true}, prefixed...)
	require.Equal(t, plain, stripped)

	// Without the flag the prefixed lines are all unrecognized.
	ignored := parseLines(t, Options{}, prefixed...)
	require.Empty(t, ignored.TimeSteps)
}

func TestParse_ConversionErrorReturnsPartialResult(t *testing.T) {
	input := strings.Join([]string{
		"info: === Time stepping at step #1 and time 0.1 with step size 0.1",
		"info: [time] Iteration #1 took 0.01 s",
		"info: === Time stepping at step #2 and time 0.2 with step size 0.1",
		"info: [time] Assembly took 1.2e+- s",
		"info: [time] Execution took 1.0 s",
	}, "\n")

	sim, err := Parse(strings.NewReader(input), Options{})
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 4, perr.LineNumber)
	require.Equal(t, "assembly_time", perr.Pattern)

	// The tree assembled before the failure is still available.
	require.NotNil(t, sim)
	require.Len(t, sim.TimeSteps, 1)
	require.Equal(t, 1, sim.TimeSteps[0].Number)
}

func TestParseFile_MissingFile(t *testing.T) {
	sim, err := ParseFile("does-not-exist.log", Options{})
	require.Error(t, err)
	require.Nil(t, sim)
}

func TestParse_SiblingIterationsDoNotShareConvergence(t *testing.T) {
	sim := parseLines(t, Options{},
		"info: === Time stepping at step #1 and time 0.1 with step size 0.01",
		"info: Convergence criterion: |dx|=1.0e-02, |x|=1.0e+00, |dx|/|x|=1.0e-02",
		"info: [time] Iteration #1 took 0.05 s",
		"info: Convergence criterion: |dx|=1.0e-03, |x|=1.0e+00, |dx|/|x|=1.0e-03",
		"info: [time] Iteration #2 took 0.04 s",
		"info: [time] Execution took 1.0 s",
	)

	its := sim.TimeSteps[0].Iterations
	require.Len(t, its, 2)
	require.Len(t, its[0].Convergence, 1)
	require.Len(t, its[1].Convergence, 1)
	require.Equal(t, 1.0e-02, its[0].Convergence[0].Dx)
	require.Equal(t, 1.0e-03, its[1].Convergence[0].Dx)
}
