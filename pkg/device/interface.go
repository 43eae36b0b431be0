// Package device defines the collaborators the control loop drives, plus
// in-memory implementations for tests and simulations.
package device

// VoltageSampler delivers raw converter counts.
type VoltageSampler interface {
	// Sample blocks until a fresh reading is available.
	Sample() (int, error)
	// ToMillivolts converts a raw count to millivolts. The conversion is
	// linear and monotonic.
	ToMillivolts(raw int) int
}

// Touch widget identifiers.
const (
	WidgetInputA = 0
	WidgetInputB = 1
	WidgetAux    = 2
)

// TouchSensor is a scanned set of touch widgets.
type TouchSensor interface {
	IsScanning() bool
	IsWidgetActive(id int) bool
	RefreshBaselines()
	// Scan starts the next scan cycle and returns immediately.
	Scan()
}

// OutputSink is a pulse-width output. Implementations that hold their last
// level while disabled must be set to 0 before Disable is called.
type OutputSink interface {
	SetLevel(duty int)
	Enable()
	Disable()
}

// TextDisplay is a character display addressed by row and column.
type TextDisplay interface {
	SetCursor(row, col int)
	WriteText(s string)
}

// Multiplexer routes one of several analog inputs to the sampler.
type Multiplexer interface {
	Select(input int)
}

// Ensure in-memory implementations satisfy the collaborator interfaces.
var (
	_ VoltageSampler = (*Sequence)(nil)
	_ TouchSensor    = (*ScriptedTouch)(nil)
	_ OutputSink     = (*MemorySink)(nil)
	_ Multiplexer    = (*MemoryMux)(nil)
	_ TextDisplay    = (*MemoryDisplay)(nil)
)
