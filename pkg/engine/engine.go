// Package engine runs the quantizer control loop: one pass per sample period,
// on a single goroutine, owning all pipeline state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/itohio/noteperfect/pkg/channel"
	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/output"
	"github.com/itohio/noteperfect/pkg/quantize"
	"github.com/itohio/noteperfect/pkg/sample"
	"github.com/itohio/noteperfect/pkg/status"
)

// Collaborators are the devices the loop drives. Only Sampler is required;
// a nil Touch disables channel selection and other nil devices are replaced
// with in-memory stand-ins.
type Collaborators struct {
	Sampler device.VoltageSampler
	Touch   device.TouchSensor
	Mux     device.Multiplexer
	Display device.TextDisplay

	Main       device.OutputSink
	IndicatorA device.OutputSink
	IndicatorB device.OutputSink
	Correction device.OutputSink
}

// Options configures the pipeline.
type Options struct {
	Window         int // Smoother window, power of two
	SlopeThreshold int // Raw-count jump that resets the smoother
	FullScaleMV    int
	StepCount      int
	Verbose        bool // Log channel switches
}

// DefaultOptions returns the front-panel hardware parameters.
func DefaultOptions() Options {
	return Options{
		Window:         sample.DefaultWindow,
		SlopeThreshold: sample.DefaultSlopeThreshold,
		FullScaleMV:    quantize.DefaultFullScaleMV,
		StepCount:      quantize.DefaultStepCount,
	}
}

// Snapshot describes one completed sample period.
type Snapshot struct {
	Raw        int // Raw sampler count
	Average    int // Smoothed count
	Millivolts int // Smoothed reading in mV
	Result     quantize.Result
	Levels     output.Levels
	Channel    channel.Channel
	Switched   bool // A channel transition fired during this period's scan
	Refreshed  bool // CV output and indicator were written
}

// Loop is the control loop. It is not safe for concurrent use.
type Loop struct {
	c Collaborators

	smoother  *sample.Smoother
	quantizer *quantize.Quantizer
	selector  *channel.Selector
	switcher  *channel.Switcher
	sinks     output.Sinks
	screen    *status.Screen

	verbose   bool
	started   bool
	pending   bool // channel switched since outputs were last refreshed
	callbacks []func(Snapshot)
}

// New creates a loop. ChannelA is active at power-on.
func New(c Collaborators, opts Options) (*Loop, error) {
	if c.Sampler == nil {
		return nil, errors.New("sampler is required")
	}

	smoother, err := sample.NewSmoother(opts.Window, opts.SlopeThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to create smoother: %w", err)
	}

	table, err := quantize.NewTable(opts.FullScaleMV, opts.StepCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create quantization table: %w", err)
	}

	if c.Mux == nil {
		c.Mux = &device.MemoryMux{}
	}
	if c.Display == nil {
		c.Display = device.NewMemoryDisplay(status.Rows, status.Cols)
	}
	for _, s := range []*device.OutputSink{&c.Main, &c.IndicatorA, &c.IndicatorB, &c.Correction} {
		if *s == nil {
			*s = device.NewMemorySink("", nil)
		}
	}

	return &Loop{
		c:         c,
		smoother:  smoother,
		quantizer: quantize.New(table),
		selector:  channel.NewSelector(channel.A),
		switcher:  channel.NewSwitcher(c.Mux, c.IndicatorA, c.IndicatorB),
		sinks: output.Sinks{
			Main:       c.Main,
			IndicatorA: c.IndicatorA,
			IndicatorB: c.IndicatorB,
			Correction: c.Correction,
		},
		screen:  status.New(c.Display),
		verbose: opts.Verbose,
	}, nil
}

// OnUpdate registers a callback invoked at the end of every sample period,
// on the loop goroutine. Register callbacks before the loop starts.
func (l *Loop) OnUpdate(callback func(Snapshot)) {
	l.callbacks = append(l.callbacks, callback)
}

// Table returns the quantization table.
func (l *Loop) Table() *quantize.Table {
	return l.quantizer.Table()
}

// Active returns the active input channel.
func (l *Loop) Active() channel.Channel {
	return l.selector.Active()
}

// Start applies the power-on state: channel A routed and lit, CV output
// running, status labels drawn. Step calls it on first use.
func (l *Loop) Start() {
	if l.started {
		return
	}
	l.started = true

	ch := l.selector.Active()
	l.switcher.Activate(ch)
	l.c.Main.Enable()
	l.screen.Init(ch)
}

// Run steps the loop until ctx is cancelled or the sampler fails. A sampler
// returning io.EOF ends the run without error.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := l.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// Step runs one sample period: channel scan, blocking acquisition,
// smoothing, quantization, mapping and sink updates.
func (l *Loop) Step() (Snapshot, error) {
	l.Start()

	switched := l.scan()

	raw, err := l.c.Sampler.Sample()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to sample: %w", err)
	}

	avg := l.smoother.Update(raw)
	mv := l.c.Sampler.ToMillivolts(avg)
	res := l.quantizer.Quantize(mv)
	ch := l.selector.Active()
	lv := output.Map(l.quantizer.Table(), res, ch)

	refresh := res.Changed || l.pending
	l.sinks.Apply(lv, refresh)
	if refresh {
		l.screen.Step(res.Step, res.Output)
	}
	l.screen.Reading(mv)
	l.pending = false

	snap := Snapshot{
		Raw:        raw,
		Average:    avg,
		Millivolts: mv,
		Result:     res,
		Levels:     lv,
		Channel:    ch,
		Switched:   switched,
		Refreshed:  refresh,
	}

	for _, cb := range l.callbacks {
		if cb != nil {
			cb(snap)
		}
	}

	return snap, nil
}

// scan polls the touch widgets when the sensor is idle and applies any
// channel transition. It reports whether a transition fired.
func (l *Loop) scan() bool {
	if l.c.Touch == nil || l.c.Touch.IsScanning() {
		return false
	}

	l.c.Touch.RefreshBaselines()

	ch, fired := l.selector.TickAux(
		l.c.Touch.IsWidgetActive(device.WidgetInputA),
		l.c.Touch.IsWidgetActive(device.WidgetInputB),
		l.c.Touch.IsWidgetActive(device.WidgetAux),
	)
	if fired {
		l.switcher.Activate(ch)
		l.screen.Channel(ch)
		l.pending = true
		if l.verbose {
			log.Printf("Input %s selected", ch)
		}
	}

	l.c.Touch.Scan()

	return fired
}
