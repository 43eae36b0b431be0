//go:build rp2040

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
	"github.com/itohio/noteperfect/pkg/quantize"
)

func main() {
	sampler := newADCSampler(PIN_CV_IN, SAMPLE_INTERVAL_US*time.Microsecond)

	display, err := newLCD()
	if err != nil {
		halt("lcd", err)
	}

	c := engine.Collaborators{
		Sampler: sampler,
		Touch:   newTouchPads(PIN_PAD_A, PIN_PAD_B, PIN_PAD_AUX),
		Mux:     newMuxPin(PIN_MUX_SEL),
		Display: display,
	}
	for _, out := range []struct {
		pin  machine.Pin
		sink *device.OutputSink
	}{
		{PIN_CV_OUT, &c.Main},
		{PIN_LED_A, &c.IndicatorA},
		{PIN_LED_B, &c.IndicatorB},
		{PIN_LED_TUNING, &c.Correction},
	} {
		sink, err := newPWMSink(out.pin, PWM_FREQ_HZ, quantize.DefaultFullScaleMV)
		if err != nil {
			halt("pwm", err)
		}
		*out.sink = sink
	}

	loop, err := engine.New(c, engine.DefaultOptions())
	if err != nil {
		halt("quantizer", err)
	}

	lcdCountdown, streamCountdown := 0, 0
	loop.OnUpdate(func(s engine.Snapshot) {
		if s.Refreshed || lcdCountdown == 0 {
			display.Flush()
			lcdCountdown = LCD_REFRESH_EVERY
		}
		lcdCountdown--

		if STREAM_EVERY > 0 {
			if streamCountdown == 0 {
				streamReading(s.Raw)
				streamCountdown = STREAM_EVERY
			}
			streamCountdown--
		}
	})

	if err := loop.Run(context.Background()); err != nil {
		halt("loop", err)
	}
}

// streamReading prints "unix_micros,count" lines for the host serial source.
func streamReading(raw int) {
	print(time.Now().UnixNano() / 1000)
	print(",")
	print(raw)
	print("\n")
}

func halt(what string, err error) {
	for {
		println(what, "failed:", err.Error())
		time.Sleep(time.Second)
	}
}
