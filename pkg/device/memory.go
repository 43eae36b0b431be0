package device

import (
	"io"
	"strconv"
	"strings"
)

// Sequence is a sampler that replays a fixed list of raw counts and then
// returns io.EOF.
type Sequence struct {
	Scale

	values []int
	pos    int
}

// NewSequence creates a sampler replaying values.
func NewSequence(scale Scale, values ...int) *Sequence {
	return &Sequence{Scale: scale, values: values}
}

// Sample returns the next value.
func (s *Sequence) Sample() (int, error) {
	if s.pos >= len(s.values) {
		return 0, io.EOF
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// Buttons is a set of asserted touch widgets, one bit per widget id.
type Buttons uint8

// Button sets.
const (
	ButtonA   Buttons = 1 << WidgetInputA
	ButtonB   Buttons = 1 << WidgetInputB
	ButtonAux Buttons = 1 << WidgetAux
)

// ScriptedTouch replays one Buttons frame per scan cycle. After the script
// ends all widgets read as released.
type ScriptedTouch struct {
	frames []Buttons
	pos    int
	busy   int

	Scans     int
	Refreshes int
}

// NewScriptedTouch creates a touch sensor replaying frames.
func NewScriptedTouch(frames ...Buttons) *ScriptedTouch {
	return &ScriptedTouch{frames: frames}
}

// SetBusy makes the next n IsScanning calls report a scan in progress.
func (t *ScriptedTouch) SetBusy(n int) { t.busy = n }

// IsScanning reports whether a scan is in progress.
func (t *ScriptedTouch) IsScanning() bool {
	if t.busy > 0 {
		t.busy--
		return true
	}
	return false
}

// IsWidgetActive reports whether widget id is asserted in the current frame.
func (t *ScriptedTouch) IsWidgetActive(id int) bool {
	if t.pos >= len(t.frames) {
		return false
	}
	return t.frames[t.pos]&(1<<id) != 0
}

// RefreshBaselines counts baseline refreshes.
func (t *ScriptedTouch) RefreshBaselines() { t.Refreshes++ }

// Scan advances to the next frame.
func (t *ScriptedTouch) Scan() {
	t.Scans++
	t.pos++
}

// Journal records operations from several memory collaborators in call order.
type Journal struct {
	Entries []string
}

func (j *Journal) add(entry string) {
	if j != nil {
		j.Entries = append(j.Entries, entry)
	}
}

// MemorySink is an output sink that remembers its level and enable state.
// Like a fixed-function PWM it keeps its level while disabled.
type MemorySink struct {
	Name    string
	Journal *Journal

	level   int
	enabled bool
}

// NewMemorySink creates a named sink recording into journal, which may be nil.
func NewMemorySink(name string, journal *Journal) *MemorySink {
	return &MemorySink{Name: name, Journal: journal}
}

// SetLevel sets the duty level.
func (s *MemorySink) SetLevel(duty int) {
	s.level = duty
	s.Journal.add(s.Name + ":set=" + strconv.Itoa(duty))
}

// Enable starts the output.
func (s *MemorySink) Enable() {
	s.enabled = true
	s.Journal.add(s.Name + ":enable")
}

// Disable stops the output.
func (s *MemorySink) Disable() {
	s.enabled = false
	s.Journal.add(s.Name + ":disable")
}

// Level returns the last level set.
func (s *MemorySink) Level() int { return s.level }

// Enabled reports whether the output is running.
func (s *MemorySink) Enabled() bool { return s.enabled }

// Lit reports whether the output is visibly driving a non-zero level.
// A disabled sink that still holds a level counts as lit.
func (s *MemorySink) Lit() bool { return s.level != 0 }

// MemoryMux records input selections.
type MemoryMux struct {
	Journal  *Journal
	Selected int
	Count    int
}

// Select routes input to the sampler.
func (m *MemoryMux) Select(input int) {
	m.Selected = input
	m.Count++
	m.Journal.add("mux:" + strconv.Itoa(input))
}

// MemoryDisplay is a character grid.
type MemoryDisplay struct {
	rows     [][]rune
	row, col int
}

// NewMemoryDisplay creates a blank display of rows x cols characters.
func NewMemoryDisplay(rows, cols int) *MemoryDisplay {
	d := &MemoryDisplay{rows: make([][]rune, rows)}
	for i := range d.rows {
		d.rows[i] = []rune(strings.Repeat(" ", cols))
	}
	return d
}

// SetCursor moves the write position.
func (d *MemoryDisplay) SetCursor(row, col int) {
	d.row, d.col = row, col
}

// WriteText writes s at the cursor, clipping at the end of the row.
func (d *MemoryDisplay) WriteText(s string) {
	if d.row < 0 || d.row >= len(d.rows) {
		return
	}
	line := d.rows[d.row]
	for _, r := range s {
		if d.col >= 0 && d.col < len(line) {
			line[d.col] = r
		}
		d.col++
	}
}

// Row returns the text of row i.
func (d *MemoryDisplay) Row(i int) string {
	return string(d.rows[i])
}

// Rows returns the text of every row.
func (d *MemoryDisplay) Rows() []string {
	out := make([]string, len(d.rows))
	for i := range d.rows {
		out[i] = string(d.rows[i])
	}
	return out
}
