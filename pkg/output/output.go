// Package output turns quantizer results into output levels and pushes them
// to the output sinks.
package output

import (
	"github.com/itohio/noteperfect/pkg/channel"
	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/quantize"
)

// Levels are the device-facing values for one sample period.
type Levels struct {
	Main       int             // CV output duty
	Active     channel.Channel // Channel whose indicator shows Indicator
	Indicator  int             // Active channel indicator brightness
	Corrected  bool            // Correction indicator on
	Correction int             // Correction indicator brightness, valid when Corrected
}

// Map computes the output levels of res on the active channel. The
// indicator never drops below step 1 so a live channel stays visible, and
// correction brightness is capped at step 10.
func Map(table *quantize.Table, res quantize.Result, active channel.Channel) Levels {
	lv := Levels{
		Main:      res.Output,
		Active:    active,
		Indicator: res.Output,
		Corrected: res.Corrected,
	}

	if res.Step == 0 {
		lv.Indicator = table.At(1)
	}

	if res.Corrected {
		lv.Correction = table.At(min(res.Step, quantize.CorrectionBrightnessCap))
	}

	return lv
}

// Sinks are the four output sinks driven every sample period.
type Sinks struct {
	Main       device.OutputSink
	IndicatorA device.OutputSink
	IndicatorB device.OutputSink
	Correction device.OutputSink
}

// Apply pushes lv. The CV output and the active indicator are written only
// when refresh is set; the correction indicator is updated every call.
func (s *Sinks) Apply(lv Levels, refresh bool) {
	if refresh {
		s.Main.SetLevel(lv.Main)

		switch lv.Active {
		case channel.A:
			s.IndicatorA.SetLevel(lv.Indicator)
		case channel.B:
			s.IndicatorB.SetLevel(lv.Indicator)
		}
	}

	if lv.Corrected {
		s.Correction.SetLevel(lv.Correction)
		s.Correction.Enable()
	} else {
		channel.Stop(s.Correction)
	}
}
