package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/noteperfect/pkg/config"
	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
	"github.com/itohio/noteperfect/pkg/panel"
)

type closingSequence struct {
	*device.Sequence
	closed bool
}

func (s *closingSequence) Close() error {
	s.closed = true
	return nil
}

func TestOpenSampler_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.SampleRate = time.Millisecond

	s, err := openSampler(cfg, true)
	require.NoError(t, err)

	raw, err := s.Sample()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, raw, 0)

	require.NoError(t, s.Close())
}

func TestOpenSampler_MissingRecording(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = filepath.Join(t.TempDir(), "missing.wav")

	_, err := openSampler(cfg, true)
	assert.Error(t, err)
}

func TestPaced_CloseUnblocks(t *testing.T) {
	seq := &closingSequence{Sequence: device.NewSequence(device.Scale{Bits: 12, ReferenceMV: 5000}, 1, 2)}
	p := newPaced(seq, 1000)

	raw, err := p.Sample()
	require.NoError(t, err)
	assert.Equal(t, 1, raw)

	require.NoError(t, p.Close())
	assert.True(t, seq.closed)

	_, err = p.Sample()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChain_RunsUntilSourceEnds(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.SampleRate = time.Millisecond
	state := &appState{cfg: cfg, useMock: true}
	board := panel.NewBoard(cfg.Quantizer.FullScaleMV)

	chain, err := startChain(state, board, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return board.Main.Enabled() }, time.Second, time.Millisecond)

	stopChain(chain)
	select {
	case <-chain.done:
	default:
		t.Fatal("loop still running after stop")
	}
}

func TestLoopOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Smoother.Window = 64
	cfg.Quantizer.StepCount = 120

	opts := loopOptions(cfg, true, cfg.ADC.ResolutionBits)
	assert.Equal(t, 64, opts.Window)
	assert.Equal(t, cfg.Smoother.SlopeThreshold, opts.SlopeThreshold)
	assert.Equal(t, 5000, opts.FullScaleMV)
	assert.Equal(t, 120, opts.StepCount)
	assert.True(t, opts.Verbose)

	opts = loopOptions(cfg, false, 24)
	assert.Equal(t, cfg.Smoother.SlopeThreshold<<8, opts.SlopeThreshold)
	assert.False(t, opts.Verbose)
}

// write24BitWAV records data as mono 24-bit PCM.
func write24BitWAV(t *testing.T, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cv24.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, 24, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 24,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

func TestLoop_AveragesHighResolutionRecording(t *testing.T) {
	// 2000 mV with about 1 mV of noise. In 24-bit counts 1 mV is 3355, well
	// above the threshold read as 24-bit counts.
	const (
		center = -1677722
		noise  = 3355
	)
	data := make([]int, 200)
	for i := range data {
		if i%2 == 0 {
			data[i] = center + noise
		} else {
			data[i] = center - noise
		}
	}

	cfg := config.Default()
	cfg.Recording.Path = write24BitWAV(t, data)

	s, err := openSampler(cfg, false)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, 24, s.Resolution())

	board := panel.NewBoard(cfg.Quantizer.FullScaleMV)
	loop, err := engine.New(board.Collaborators(s), loopOptions(cfg, false, s.Resolution()))
	require.NoError(t, err)

	first, err := loop.Step()
	require.NoError(t, err)
	assert.Equal(t, first.Raw, first.Average)

	for i := 1; i < len(data); i++ {
		snap, err := loop.Step()
		require.NoError(t, err)
		require.NotEqual(t, snap.Raw, snap.Average, "sample %d reset the filter", i)
		assert.InDelta(t, 2000, snap.Millivolts, 2)
	}
}
