package simlog

// ComponentConvergence is one per-component convergence measurement within a
// nonlinear iteration.
type ComponentConvergence struct {
	Component  int     // component index; 0 for the unindexed global criterion
	Dx         float64 // norm of the solution change
	X          float64 // norm of the solution
	DxRelative float64 // |dx|/|x|
}

// Iteration is one nonlinear-solver pass within a time step.
//
// Pointer fields are optional: a nil value means the corresponding timing line
// did not appear between the previous iteration boundary and this one. Absent
// is never stale; the accumulators reset at every boundary.
type Iteration struct {
	Number              int
	AssemblyTime        *float64 // seconds
	DirichletBCTime     *float64 // seconds
	LinearSolverTime    *float64 // seconds
	CPUTime             float64  // seconds, from the "Iteration #N took" line itself
	PhaseFieldParameter *float64 // min of the damage/phase field, when reported
	Convergence         []ComponentConvergence
}

// TimeStep is one discrete advance of simulation time.
type TimeStep struct {
	Number       int
	T            float64 // simulation time at the step boundary
	DT           float64 // step size
	Iterations   []Iteration
	CPUTime      *float64 // seconds, from the "Time step #N took" line
	OutputTime   *float64 // seconds, from the "Output of timestep" line
	SolutionTime *float64 // seconds, from the "Solving process" line
}

// Simulation is the root of the parsed run record. TimeSteps appear in
// finalization order; their numbers are non-decreasing.
type Simulation struct {
	TimeSteps     []TimeStep
	MeshReadTime  *float64 // reserved; no current grammar sets it
	ExecutionTime *float64 // seconds, from the "Execution took" line
}
