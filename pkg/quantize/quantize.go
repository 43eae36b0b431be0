// Package quantize rounds millivolt readings to a fixed set of evenly spaced steps.
package quantize

import "fmt"

const (
	// DefaultFullScaleMV is the top of the input range: 5 octaves at 1V/oct.
	DefaultFullScaleMV = 5000
	// DefaultStepCount is the number of steps: 12 semitones per volt.
	DefaultStepCount = 60
	// CorrectionBrightnessCap is the highest step whose table value is used for
	// the correction indicator.
	CorrectionBrightnessCap = 10
)

// Table holds the output value of every step. It is immutable once built.
type Table struct {
	values      []int
	fullScaleMV int
}

// NewTable builds the table for stepCount steps spanning fullScaleMV.
// Step k maps to k*fullScaleMV/stepCount rounded half up.
func NewTable(fullScaleMV, stepCount int) (*Table, error) {
	if stepCount < 2 {
		return nil, fmt.Errorf("step count must be at least 2, got %d", stepCount)
	}
	if fullScaleMV < stepCount {
		return nil, fmt.Errorf("full scale %d mV is too small for %d steps", fullScaleMV, stepCount)
	}

	values := make([]int, stepCount)
	for k := range values {
		values[k] = (2*k*fullScaleMV + stepCount) / (2 * stepCount)
	}

	return &Table{values: values, fullScaleMV: fullScaleMV}, nil
}

// Len returns the number of steps.
func (t *Table) Len() int { return len(t.values) }

// At returns the output value of step i.
func (t *Table) At(i int) int { return t.values[i] }

// FullScaleMV returns the voltage span the table was built for.
func (t *Table) FullScaleMV() int { return t.fullScaleMV }

// StepSizeMV returns the integer step pitch.
func (t *Table) StepSizeMV() int { return t.fullScaleMV / len(t.values) }

// Values returns a copy of the table.
func (t *Table) Values() []int {
	out := make([]int, len(t.values))
	copy(out, t.values)
	return out
}

// Result is the outcome of quantizing one reading.
type Result struct {
	Step      int  // Step index in [0, Len)
	Output    int  // Table value of Step (mV)
	Changed   bool // Step differs from the previously emitted step
	Corrected bool // Input was outside the correction window of Step
}

// State is the quantizer memory carried between sample periods.
type State struct {
	PreviousStep int // -1 before the first result
	Corrected    bool
}

// Quantizer maps smoothed millivolt readings onto a Table.
type Quantizer struct {
	table  *Table
	window int
	state  State
}

// New creates a quantizer over table. The correction window is a quarter of
// the step pitch.
func New(table *Table) *Quantizer {
	return &Quantizer{
		table:  table,
		window: table.StepSizeMV() / 4,
		state:  State{PreviousStep: -1},
	}
}

// Quantize rounds mv to the nearest step, ties going up. Readings past the
// top of the table clamp to the last step and negative readings to step 0.
func (q *Quantizer) Quantize(mv int) Result {
	step := q.Nearest(mv)
	out := q.table.values[step]

	res := Result{
		Step:      step,
		Output:    out,
		Changed:   step != q.state.PreviousStep,
		Corrected: abs(mv-out) > q.window,
	}

	if res.Changed {
		q.state.PreviousStep = step
	}
	q.state.Corrected = res.Corrected

	return res
}

// Nearest returns the step index for mv without touching the quantizer state.
func (q *Quantizer) Nearest(mv int) int {
	if mv <= 0 {
		return 0
	}

	// Divide by the exact pitch fullScale/n rather than its truncation so
	// rounding agrees with the table values.
	n := len(q.table.values)
	scaled := mv * n
	step := scaled / q.table.fullScaleMV
	if 2*(scaled%q.table.fullScaleMV) >= q.table.fullScaleMV {
		step++
	}

	if step > n-1 {
		step = n - 1
	}
	return step
}

// CorrectionWindowMV returns the half-width of the band treated as in tune.
func (q *Quantizer) CorrectionWindowMV() int { return q.window }

// State returns a copy of the quantizer memory.
func (q *Quantizer) State() State { return q.state }

// Table returns the table the quantizer rounds to.
func (q *Quantizer) Table() *Table { return q.table }

// Reset forgets the previously emitted step so the next result reports a change.
func (q *Quantizer) Reset() {
	q.state = State{PreviousStep: -1}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
