// Package panel emulates the quantizer front panel on a host: a 16x2
// character display, the CV output, three indicator lamps and the touch
// pads. The same board is rendered either in a window or in a terminal.
package panel

import (
	"sync"
	"time"

	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
	"github.com/itohio/noteperfect/pkg/status"
)

// DefaultHold is how long a pad press reads as asserted.
const DefaultHold = 80 * time.Millisecond

// Board holds the emulated front-panel devices. All devices are safe for
// concurrent use: the control loop writes them while a front end reads.
type Board struct {
	LCD        *LCD
	Main       *Lamp
	IndicatorA *Lamp
	IndicatorB *Lamp
	Correction *Lamp
	Pads       *Pads
}

// NewBoard creates a board whose lamps reach full brightness at fullScaleMV.
func NewBoard(fullScaleMV int) *Board {
	return &Board{
		LCD:        NewLCD(),
		Main:       NewLamp(fullScaleMV),
		IndicatorA: NewLamp(fullScaleMV),
		IndicatorB: NewLamp(fullScaleMV),
		Correction: NewLamp(fullScaleMV),
		Pads:       NewPads(DefaultHold),
	}
}

// Collaborators wires the board and sampler into control loop collaborators.
// The host has a single input, so input routing is left to the loop's stand-in.
func (b *Board) Collaborators(sampler device.VoltageSampler) engine.Collaborators {
	return engine.Collaborators{
		Sampler:    sampler,
		Touch:      b.Pads,
		Display:    b.LCD,
		Main:       b.Main,
		IndicatorA: b.IndicatorA,
		IndicatorB: b.IndicatorB,
		Correction: b.Correction,
	}
}

// Lamp is an output sink shown as a brightness. Like a hardware PWM it keeps
// its last level while disabled.
type Lamp struct {
	mu        sync.Mutex
	fullScale int
	level     int
	enabled   bool
}

// NewLamp creates a lamp that is fully lit at fullScale.
func NewLamp(fullScale int) *Lamp {
	if fullScale <= 0 {
		fullScale = 1
	}
	return &Lamp{fullScale: fullScale}
}

// SetLevel sets the duty level.
func (l *Lamp) SetLevel(duty int) {
	l.mu.Lock()
	l.level = duty
	l.mu.Unlock()
}

// Enable starts the output.
func (l *Lamp) Enable() {
	l.mu.Lock()
	l.enabled = true
	l.mu.Unlock()
}

// Disable stops the output.
func (l *Lamp) Disable() {
	l.mu.Lock()
	l.enabled = false
	l.mu.Unlock()
}

// Level returns the last level set.
func (l *Lamp) Level() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether the output is running.
func (l *Lamp) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Brightness returns the level as a fraction of full scale, clamped to [0, 1].
func (l *Lamp) Brightness() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := float32(l.level) / float32(l.fullScale)
	if b < 0 {
		return 0
	}
	if b > 1 {
		return 1
	}
	return b
}

// LCD is the status character display.
type LCD struct {
	mu   sync.Mutex
	grid *device.MemoryDisplay
}

// NewLCD creates a blank 16x2 display.
func NewLCD() *LCD {
	return &LCD{grid: device.NewMemoryDisplay(status.Rows, status.Cols)}
}

// SetCursor moves the write position.
func (d *LCD) SetCursor(row, col int) {
	d.mu.Lock()
	d.grid.SetCursor(row, col)
	d.mu.Unlock()
}

// WriteText writes s at the cursor.
func (d *LCD) WriteText(s string) {
	d.mu.Lock()
	d.grid.WriteText(s)
	d.mu.Unlock()
}

// Rows returns the text of every row.
func (d *LCD) Rows() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid.Rows()
}

// Pads is a touch sensor driven by UI events. A press reads as asserted for
// at least one scan cycle and until its hold time has passed.
type Pads struct {
	mu      sync.Mutex
	hold    time.Duration
	now     func() time.Time
	until   [3]time.Time
	pending [3]bool
}

// NewPads creates pads holding each press for hold.
func NewPads(hold time.Duration) *Pads {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Pads{hold: hold, now: time.Now}
}

// Press touches pad id.
func (p *Pads) Press(id int) {
	if id < 0 || id >= len(p.until) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.until[id] = p.now().Add(p.hold)
	p.pending[id] = true
}

// IsScanning reports false: UI events need no acquisition time.
func (p *Pads) IsScanning() bool { return false }

// IsWidgetActive reports whether pad id is touched.
func (p *Pads) IsWidgetActive(id int) bool {
	if id < 0 || id >= len(p.until) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pending[id] || p.now().Before(p.until[id])
}

// RefreshBaselines does nothing.
func (p *Pads) RefreshBaselines() {}

// Scan retires presses observed during the current cycle.
func (p *Pads) Scan() {
	p.mu.Lock()
	p.pending = [3]bool{}
	p.mu.Unlock()
}

// Ensure board devices satisfy the collaborator interfaces.
var (
	_ device.OutputSink  = (*Lamp)(nil)
	_ device.TextDisplay = (*LCD)(nil)
	_ device.TouchSensor = (*Pads)(nil)
)
