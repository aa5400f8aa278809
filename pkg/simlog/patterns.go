package simlog

import (
	"fmt"
	"regexp"
	"strconv"
)

// lineKind identifies which grammar matched a log line.
type lineKind int

const (
	lineIteration lineKind = iota
	lineAssemblyTime
	lineDirichletBCTime
	lineLinearSolverTime
	linePhaseFieldParameter
	lineComponentConvergence
	lineConvergence
	lineTimeStepStart
	lineSolutionTime
	lineOutputTime
	lineTimeStepFinished
	lineExecutionTime
)

// fieldKind selects the converter for one capture group.
type fieldKind int

const (
	intField fieldKind = iota
	floatField
)

// pattern pairs one line grammar with typed converters for its capture groups.
type pattern struct {
	kind   lineKind
	name   string
	re     *regexp.Regexp
	fields []fieldKind
}

// num matches a non-negative decimal or scientific-notation number.
const num = `[\d.eE+-]+`

// patterns is tried in order against each line; the first match wins. The
// order is significant: several grammars share the "info: [time]" prefix.
var patterns = []pattern{
	{lineIteration, "iteration",
		regexp.MustCompile(`^info: \[time\] Iteration #(\d+) took (` + num + `) s`),
		[]fieldKind{intField, floatField}},
	{lineAssemblyTime, "assembly_time",
		regexp.MustCompile(`^info: \[time\] Assembly took (` + num + `) s`),
		[]fieldKind{floatField}},
	{lineDirichletBCTime, "dirichlet_bc_time",
		regexp.MustCompile(`^info: \[time\] Applying Dirichlet BCs took (` + num + `) s`),
		[]fieldKind{floatField}},
	{lineLinearSolverTime, "linear_solver_time",
		regexp.MustCompile(`^info: \[time\] Linear solver took (` + num + `) s`),
		[]fieldKind{floatField}},
	{linePhaseFieldParameter, "phase_field_parameter",
		regexp.MustCompile(`^info: The min of d is (` + num + `)`),
		[]fieldKind{floatField}},
	{lineComponentConvergence, "component_convergence",
		regexp.MustCompile(`^info: Convergence criterion, component (\d+): \|dx\|=(` + num + `), \|x\|=(` + num + `), \|dx\|/\|x\|=(` + num + `)$`),
		[]fieldKind{intField, floatField, floatField, floatField}},
	{lineConvergence, "convergence",
		regexp.MustCompile(`^info: Convergence criterion: \|dx\|=(` + num + `), \|x\|=(` + num + `), \|dx\|/\|x\|=(` + num + `)$`),
		[]fieldKind{floatField, floatField, floatField}},
	{lineTimeStepStart, "time_step_start",
		regexp.MustCompile(`^info: === Time stepping at step #(\d+) and time (` + num + `) with step size (.*)`),
		[]fieldKind{intField, floatField, floatField}},
	{lineSolutionTime, "solution_time",
		regexp.MustCompile(`^info: \[time\] Solving process #(\d+) took (` + num + `) s in time step #(\d+)`),
		[]fieldKind{intField, floatField, intField}},
	{lineOutputTime, "output_time",
		regexp.MustCompile(`^info: \[time\] Output of timestep (\d+) took (` + num + `) s`),
		[]fieldKind{intField, floatField}},
	{lineTimeStepFinished, "time_step_finished",
		regexp.MustCompile(`^info: \[time\] Time step #(\d+) took (` + num + `) s`),
		[]fieldKind{intField, floatField}},
	{lineExecutionTime, "execution_time",
		regexp.MustCompile(`^info: \[time\] Execution took (` + num + `) s`),
		[]fieldKind{floatField}},
}

// match is the typed result of classifying one line. Integer captures land in
// ints and float captures in floats, each in grammar order.
type match struct {
	kind   lineKind
	ints   []int
	floats []float64
}

// ParseError reports a capture that failed numeric conversion after its
// grammar matched. The grammars' character classes make this nearly
// impossible, but a matched line must never be silently misread.
type ParseError struct {
	LineNumber int    // 1-based position in the input, 0 if unknown
	Line       string // the offending line after any prefix stripping
	Pattern    string // name of the grammar that matched
	Err        error  // the underlying conversion error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: pattern %q matched but conversion failed: %v (line: %q)",
		e.LineNumber, e.Pattern, e.Err, e.Line)
}

func (e *ParseError) Unwrap() error { return e.Err }

// classify runs line through the pattern registry. ok reports whether any
// grammar matched; unmatched lines are not an error. A non-nil error means a
// grammar matched but a capture could not be converted.
func classify(line string) (match, bool, error) {
	for _, p := range patterns {
		groups := p.re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		m := match{kind: p.kind}
		for i, f := range p.fields {
			s := groups[i+1]
			switch f {
			case intField:
				v, err := strconv.Atoi(s)
				if err != nil {
					return match{}, false, &ParseError{Line: line, Pattern: p.name, Err: err}
				}
				m.ints = append(m.ints, v)
			case floatField:
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return match{}, false, &ParseError{Line: line, Pattern: p.name, Err: err}
				}
				m.floats = append(m.floats, v)
			}
		}
		return m, true, nil
	}
	return match{}, false, nil
}
