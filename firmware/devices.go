//go:build rp2040

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/hd44780"

	"github.com/itohio/noteperfect/pkg/device"
)

// adcSampler reads the CV input once per sample period.
type adcSampler struct {
	device.Scale

	adc      machine.ADC
	interval time.Duration
	next     time.Time
}

func newADCSampler(pin machine.Pin, interval time.Duration) *adcSampler {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})

	return &adcSampler{
		Scale:    device.Scale{Bits: ADC_RESOLUTION, ReferenceMV: ADC_FULL_SCALE_MV},
		adc:      adc,
		interval: interval,
		next:     time.Now(),
	}
}

// Sample waits for the start of the next period and converts.
func (s *adcSampler) Sample() (int, error) {
	if d := time.Until(s.next); d > 0 {
		time.Sleep(d)
	}
	s.next = s.next.Add(s.interval)
	if time.Since(s.next) > s.interval {
		// Fell behind; resynchronize instead of bursting.
		s.next = time.Now().Add(s.interval)
	}
	return int(s.adc.Get()), nil
}

// pwmCtrl is the part of a PWM slice the sinks use.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// pwmSink drives one PWM channel. Levels are millivolts of the full-scale
// output. Disabling drives 0 but remembers the level, so callers zero the
// level before disabling.
type pwmSink struct {
	ctrl      pwmCtrl
	ch        uint8
	top       uint32
	fullScale uint32
	level     uint32
	enabled   bool
}

func newPWMSink(pin machine.Pin, freqHz uint64, fullScaleMV int) (*pwmSink, error) {
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return nil, err
	}
	ctrl := pwmGroupBySlice(slice)
	if err := ctrl.Configure(machine.PWMConfig{Period: 1e9 / freqHz}); err != nil {
		return nil, err
	}
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})

	return &pwmSink{
		ctrl: ctrl,
		// Even pins are channel A, odd pins channel B.
		ch:        uint8(pin & 1),
		top:       ctrl.Top(),
		fullScale: uint32(fullScaleMV),
	}, nil
}

func (p *pwmSink) SetLevel(duty int) {
	if duty < 0 {
		duty = 0
	}
	p.level = min(uint32(duty), p.fullScale)
	if p.enabled {
		p.write(p.level)
	}
}

func (p *pwmSink) Enable() {
	p.enabled = true
	p.write(p.level)
}

func (p *pwmSink) Disable() {
	p.enabled = false
	p.write(0)
}

func (p *pwmSink) write(level uint32) {
	p.ctrl.Set(p.ch, level*p.top/p.fullScale)
}

// touchPads reads digital touch modules. The modules scan on their own, so
// there is never a scan in progress.
type touchPads struct {
	pins [3]machine.Pin
}

func newTouchPads(a, b, aux machine.Pin) *touchPads {
	t := &touchPads{pins: [3]machine.Pin{a, b, aux}}
	for _, p := range t.pins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
	return t
}

func (t *touchPads) IsScanning() bool { return false }

func (t *touchPads) IsWidgetActive(id int) bool {
	if id < 0 || id >= len(t.pins) {
		return false
	}
	return t.pins[id].Get()
}

func (t *touchPads) RefreshBaselines() {}

func (t *touchPads) Scan() {}

// muxPin drives the 2:1 input multiplexer select line.
type muxPin struct {
	pin machine.Pin
}

func newMuxPin(pin machine.Pin) *muxPin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &muxPin{pin: pin}
}

func (m *muxPin) Select(input int) {
	m.pin.Set(input != 0)
}

// lcd adapts the HD44780 driver. Writes go to the driver buffer and are
// shown by Flush.
type lcd struct {
	dev hd44780.Device
}

func newLCD() (*lcd, error) {
	dev, err := hd44780.NewGPIO4Bit(
		[]machine.Pin{PIN_LCD_D4, PIN_LCD_D5, PIN_LCD_D6, PIN_LCD_D7},
		PIN_LCD_E, PIN_LCD_RS, machine.NoPin,
	)
	if err != nil {
		return nil, err
	}
	if err := dev.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}
	return &lcd{dev: dev}, nil
}

func (d *lcd) SetCursor(row, col int) {
	d.dev.SetCursor(uint8(col), uint8(row))
}

func (d *lcd) WriteText(s string) {
	d.dev.Write([]byte(s))
}

func (d *lcd) Flush() {
	d.dev.Display()
}

var (
	_ device.VoltageSampler = (*adcSampler)(nil)
	_ device.OutputSink     = (*pwmSink)(nil)
	_ device.TouchSensor    = (*touchPads)(nil)
	_ device.Multiplexer    = (*muxPin)(nil)
	_ device.TextDisplay    = (*lcd)(nil)
)
