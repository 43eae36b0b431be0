package source

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/device"
)

// Mock waveforms.
const (
	WaveSine  = "sine"
	WaveRamp  = "ramp"
	WaveSteps = "steps" // random held voltage, changing once per period
)

// Mock simulates a control voltage source for testing and development.
type Mock struct {
	device.Scale

	cfg *config.MockConfig
	rng *rand.Rand

	samples   chan int
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	startTime time.Time
	held      float32 // current level of the steps waveform (mV)
	heldAt    int     // period index held was drawn for
}

// NewMock creates a simulated source. A nil cfg uses the default mock configuration.
func NewMock(cfg *config.MockConfig, scale device.Scale) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		Scale:   scale,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(1)),
		samples: make(chan int, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		heldAt:  -1,
	}
}

// Connect starts generating samples.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	switch m.cfg.Waveform {
	case WaveSine, WaveRamp, WaveSteps:
	default:
		return fmt.Errorf("unknown waveform %q", m.cfg.Waveform)
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateSamples()

	return nil
}

// Close stops the generator. Sample returns io.EOF afterwards.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// IsConnected returns whether the generator is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Sample blocks until the next simulated reading.
func (m *Mock) Sample() (int, error) {
	raw, ok := <-m.samples
	if !ok {
		return 0, io.EOF
	}
	return raw, nil
}

// generateSamples emits one sample per configured sample period.
func (m *Mock) generateSamples() {
	defer close(m.samples)

	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			raw := m.generateSample(now.Sub(m.startTime))
			select {
			case m.samples <- raw:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// generateSample returns the raw count of the waveform at elapsed time.
func (m *Mock) generateSample(elapsed time.Duration) int {
	t := float32(elapsed.Seconds())
	f := float32(m.cfg.FrequencyHz)
	offset := float32(m.cfg.OffsetMV)
	amp := float32(m.cfg.AmplitudeMV)

	var mv float32
	switch m.cfg.Waveform {
	case WaveRamp:
		_, frac := math32.Modf(t * f)
		mv = offset - amp + 2*amp*frac
	case WaveSteps:
		period := int(math32.Floor(t * f))
		if period != m.heldAt {
			m.heldAt = period
			m.held = offset - amp + 2*amp*m.rng.Float32()
		}
		mv = m.held
	default:
		mv = offset + amp*math32.Sin(2*math32.Pi*f*t)
	}

	noise := float32(m.cfg.NoiseMV)
	mv += noise * (2*m.rng.Float32() - 1)

	return m.ToCounts(float64(mv))
}
