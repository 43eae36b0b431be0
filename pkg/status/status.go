// Package status lays out the 16x2 front-panel status screen:
//
//	In A     Step=24
//	2040mV  DAC=2000
package status

import (
	"strconv"

	"github.com/itohio/noteperfect/pkg/channel"
	"github.com/itohio/noteperfect/pkg/device"
)

const (
	Rows = 2
	Cols = 16
)

// Screen writes status fields to a character display.
type Screen struct {
	d device.TextDisplay
}

// New creates a screen on d.
func New(d device.TextDisplay) *Screen {
	return &Screen{d: d}
}

// Init draws the static labels with ch as the input channel.
func (s *Screen) Init(ch channel.Channel) {
	s.d.SetCursor(0, 0)
	s.d.WriteText("In " + ch.String() + "     Step=")
	s.d.SetCursor(1, 4)
	s.d.WriteText("mV")
	s.d.SetCursor(1, 8)
	s.d.WriteText("DAC=")
}

// Channel shows the input channel label.
func (s *Screen) Channel(ch channel.Channel) {
	s.d.SetCursor(0, 0)
	s.d.WriteText("In " + ch.String())
}

// Reading shows the smoothed input in millivolts.
func (s *Screen) Reading(mv int) {
	s.d.SetCursor(1, 0)
	s.d.WriteText(pad(mv, 4))
}

// Step shows the step number and its output value.
func (s *Screen) Step(step, outputMV int) {
	s.d.SetCursor(1, 12)
	s.d.WriteText(pad(outputMV, 4))
	s.d.SetCursor(0, 14)
	s.d.WriteText(pad(step, 2))
}

// pad right-aligns n in a field of width characters. Values that do not fit
// are clamped to the widest number the field can show.
func pad(n, width int) string {
	hi := 1
	for range width {
		hi *= 10
	}
	hi--
	lo := -(hi / 10)
	n = max(lo, min(n, hi))

	s := strconv.Itoa(n)
	for len(s) < width {
		s = " " + s
	}
	return s
}
