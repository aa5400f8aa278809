// Package simlog reconstructs a structured record of a numerical solver run
// from its textual progress log.
//
// # Log Format
//
// The solver writes a free-form log with many line kinds. simlog models a
// closed set of them; everything else is ignored. The modeled lines look like:
//
//	info: === Time stepping at step #1 and time 0.1 with step size 0.1
//	info: [time] Assembly took 0.012 s
//	info: [time] Applying Dirichlet BCs took 0.0003 s
//	info: [time] Linear solver took 0.045 s
//	info: Convergence criterion: |dx|=1.2e-03, |x|=4.5e+01, |dx|/|x|=2.7e-05
//	info: [time] Iteration #1 took 0.06 s
//	info: [time] Output of timestep 1 took 0.002 s
//	info: [time] Time step #1 took 0.08 s
//	info: [time] Execution took 1.25 s
//
// # Structure
//
// Lines nest into a tree:
//
//	Simulation
//	└── TimeStep (one per "Time stepping" boundary)
//	    └── Iteration (one per "Iteration #N took" line)
//	        └── ComponentConvergence (one per convergence line)
//
// Timing lines between two iteration boundaries belong to the iteration that
// is finalized at the second boundary. A "Time stepping" line finalizes the
// previous time step and starts the next one; the "Execution took" line
// finalizes the last step and the run.
//
// # Known Quirk
//
// A log that ends without an "Execution took" line (crashed or truncated run)
// never finalizes its last in-progress time step, so that step's iterations
// are missing from the result. This matches the solver tooling this package
// replaces and is covered by a test.
//
// The parsed tree flattens into one row per convergence measurement via
// [Simulation.Rows], ready for CSV or similar tabular export.
package simlog
