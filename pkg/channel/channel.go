// Package channel selects which of the two analog inputs feeds the quantizer.
package channel

import "github.com/itohio/noteperfect/pkg/device"

// Channel identifies an analog input.
type Channel uint8

const (
	A Channel = iota
	B
)

// String returns the front-panel label of the channel.
func (c Channel) String() string {
	switch c {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return "?"
	}
}

// Mux input numbers of the channels on the analog multiplexer.
const (
	MuxInputB = 0
	MuxInputA = 1
)

// MuxInput returns the multiplexer input wired to the channel.
func (c Channel) MuxInput() int {
	if c == B {
		return MuxInputB
	}
	return MuxInputA
}

// State is the selector memory: the active channel and the previous
// asserted level of each trigger.
type State struct {
	Active  Channel
	Latched [3]bool // trigger0, trigger1, aux
}

// Selector is an edge-triggered two-way input selector. Only the tick on
// which a trigger goes from released to asserted acts; holding a trigger
// does nothing further.
type Selector struct {
	state State
}

// NewSelector creates a selector with initial as the active channel.
func NewSelector(initial Channel) *Selector {
	return &Selector{state: State{Active: initial}}
}

// Tick processes one scan. trigger0 selects A and trigger1 selects B; if
// both rise on the same tick B wins. It returns the active channel and
// whether a transition fired. Re-selecting the active channel still fires.
func (s *Selector) Tick(trigger0, trigger1 bool) (Channel, bool) {
	return s.TickAux(trigger0, trigger1, false)
}

// TickAux is Tick with the auxiliary trigger. The auxiliary trigger is
// edge-latched but has no action.
func (s *Selector) TickAux(trigger0, trigger1, aux bool) (Channel, bool) {
	fired := false

	if trigger0 && !s.state.Latched[0] {
		s.state.Active = A
		fired = true
	}
	if trigger1 && !s.state.Latched[1] {
		s.state.Active = B
		fired = true
	}

	s.state.Latched = [3]bool{trigger0, trigger1, aux}

	return s.state.Active, fired
}

// Active returns the active channel.
func (s *Selector) Active() Channel { return s.state.Active }

// State returns a copy of the selector memory.
func (s *Selector) State() State { return s.state }

// Switcher applies a channel transition to the hardware: it routes the
// input multiplexer and hands the indicator over to the new channel.
type Switcher struct {
	mux        device.Multiplexer
	indicators [2]device.OutputSink
}

// NewSwitcher creates a switcher. indicatorA and indicatorB light up for
// their channel while it is active.
func NewSwitcher(mux device.Multiplexer, indicatorA, indicatorB device.OutputSink) *Switcher {
	return &Switcher{
		mux:        mux,
		indicators: [2]device.OutputSink{indicatorA, indicatorB},
	}
}

// Activate makes ch the input source. The other indicator is zeroed before
// it is disabled since a stopped output holds its last level.
func (w *Switcher) Activate(ch Channel) {
	var on, off device.OutputSink
	switch ch {
	case A:
		on, off = w.indicators[A], w.indicators[B]
	case B:
		on, off = w.indicators[B], w.indicators[A]
	default:
		return
	}

	w.mux.Select(ch.MuxInput())
	on.Enable()
	Stop(off)
}

// Indicator returns the indicator sink of ch.
func (w *Switcher) Indicator(ch Channel) device.OutputSink {
	if ch == B {
		return w.indicators[B]
	}
	return w.indicators[A]
}

// Stop zeroes sink and then disables it.
func Stop(sink device.OutputSink) {
	sink.SetLevel(0)
	sink.Disable()
}
