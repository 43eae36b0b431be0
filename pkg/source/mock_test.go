package source

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/device"
)

var scale16 = device.Scale{Bits: 16, ReferenceMV: 5000}

func TestNewMock_NilConfig(t *testing.T) {
	m := NewMock(nil, scale16)
	assert.NotNil(t, m)
	assert.Equal(t, WaveSine, m.cfg.Waveform)
	assert.Equal(t, time.Millisecond, m.cfg.SampleRate)
	assert.False(t, m.IsConnected())
}

func TestMock_GenerateSample(t *testing.T) {
	tests := []struct {
		name     string
		waveform string
		elapsed  time.Duration
		wantMV   int
	}{
		{name: "sine at zero crossing", waveform: WaveSine, elapsed: 0, wantMV: 2500},
		{name: "sine at peak", waveform: WaveSine, elapsed: 250 * time.Millisecond, wantMV: 4500},
		{name: "sine at trough", waveform: WaveSine, elapsed: 750 * time.Millisecond, wantMV: 500},
		{name: "ramp start", waveform: WaveRamp, elapsed: 0, wantMV: 500},
		{name: "ramp quarter", waveform: WaveRamp, elapsed: 250 * time.Millisecond, wantMV: 1500},
		{name: "ramp wraps", waveform: WaveRamp, elapsed: 1250 * time.Millisecond, wantMV: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.MockConfig{
				Waveform:    tt.waveform,
				FrequencyHz: 1,
				OffsetMV:    2500,
				AmplitudeMV: 2000,
				SampleRate:  time.Millisecond,
			}
			m := NewMock(cfg, scale16)
			mv := m.ToMillivolts(m.generateSample(tt.elapsed))
			assert.InDelta(t, tt.wantMV, mv, 2)
		})
	}
}

func TestMock_StepsHoldWithinPeriod(t *testing.T) {
	cfg := &config.MockConfig{
		Waveform:    WaveSteps,
		FrequencyHz: 2,
		OffsetMV:    2500,
		AmplitudeMV: 2500,
		SampleRate:  time.Millisecond,
	}
	m := NewMock(cfg, scale16)

	a := m.generateSample(10 * time.Millisecond)
	b := m.generateSample(400 * time.Millisecond)
	assert.Equal(t, a, b)
	assert.Equal(t, 0, m.heldAt)

	m.generateSample(600 * time.Millisecond)
	assert.Equal(t, 1, m.heldAt)
}

func TestMock_NoiseIsBounded(t *testing.T) {
	cfg := &config.MockConfig{
		Waveform:    WaveSine,
		FrequencyHz: 1,
		OffsetMV:    2500,
		NoiseMV:     10,
		SampleRate:  time.Millisecond,
	}
	m := NewMock(cfg, scale16)

	for i := 0; i < 1000; i++ {
		mv := m.ToMillivolts(m.generateSample(0))
		require.InDelta(t, 2500, mv, 11)
	}
}

func TestMock_ConnectSampleClose(t *testing.T) {
	cfg := config.Default().Mock
	m := NewMock(&cfg, scale16)

	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect())

	_, err := m.Sample()
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := m.Sample(); errors.Is(err, io.EOF) {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sample did not return io.EOF after Close")
	}
}

func TestMock_UnknownWaveform(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Waveform = "square"
	m := NewMock(&cfg, scale16)

	assert.Error(t, m.Connect())
	assert.False(t, m.IsConnected())
}
