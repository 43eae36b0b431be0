package main

import (
	"fmt"
	"io"
	"time"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/source"
)

// sampler is a voltage sampler the application opens and closes.
type sampler interface {
	device.VoltageSampler
	Resolution() int
	Close() error
}

// openSampler opens the configured source: a recording when one is set,
// the simulated source when useMock is set, the serial ADC bridge otherwise.
func openSampler(cfg *config.Config, useMock bool) (sampler, error) {
	scale := device.Scale{Bits: cfg.ADC.ResolutionBits, ReferenceMV: cfg.ADC.ReferenceMV}

	switch {
	case cfg.Recording.Path != "":
		w, err := source.OpenWAV(cfg.Recording.Path, cfg.ADC.ReferenceMV)
		if err != nil {
			return nil, err
		}
		return newPaced(w, w.SampleRate()), nil

	case useMock:
		m := source.NewMock(&cfg.Mock, scale)
		if err := m.Connect(); err != nil {
			return nil, fmt.Errorf("failed to start simulated source: %w", err)
		}
		return m, nil

	default:
		s := source.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, source.DefaultBufferSize, scale)
		if err := s.Connect(); err != nil {
			return nil, err
		}
		return s, nil
	}
}

// sourceName describes the configured source for log messages.
func sourceName(state *appState) string {
	switch {
	case state.cfg.Recording.Path != "":
		return "recording " + state.cfg.Recording.Path
	case state.useMock:
		return "simulated source"
	default:
		return "serial port " + state.cfg.Serial.Port
	}
}

// paced releases samples at the recording's frame rate so playback runs in
// real time.
type paced struct {
	sampler
	ticker *time.Ticker
	done   chan struct{}
}

func newPaced(s sampler, rateHz int) *paced {
	if rateHz <= 0 {
		rateHz = 1000
	}
	return &paced{
		sampler: s,
		ticker:  time.NewTicker(time.Second / time.Duration(rateHz)),
		done:    make(chan struct{}),
	}
}

// Sample waits for the next frame period before reading.
func (p *paced) Sample() (int, error) {
	select {
	case <-p.ticker.C:
		return p.sampler.Sample()
	case <-p.done:
		return 0, io.EOF
	}
}

// Close stops pacing and closes the recording.
func (p *paced) Close() error {
	p.ticker.Stop()
	close(p.done)
	return p.sampler.Close()
}
