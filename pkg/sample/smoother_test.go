package sample

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNewSmoother(t *testing.T) {
	tests := []struct {
		name      string
		window    int
		threshold int
		wantErr   bool
	}{
		{name: "default", window: DefaultWindow, threshold: DefaultSlopeThreshold},
		{name: "window of one", window: 1, threshold: 10},
		{name: "zero window", window: 0, threshold: 10, wantErr: true},
		{name: "not power of two", window: 100, threshold: 10, wantErr: true},
		{name: "negative threshold", window: 8, threshold: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSmoother(tt.window, tt.threshold)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.window, s.Window())
		})
	}
}

func TestSmoother_FirstSamplePrimes(t *testing.T) {
	s, err := NewSmoother(DefaultWindow, DefaultSlopeThreshold)
	require.NoError(t, err)

	assert.Equal(t, 30000, s.Update(30000))
	assert.Equal(t, 30000<<7, s.sum)
	assert.Equal(t, 0, s.cursor)
	for _, v := range s.buf {
		assert.Equal(t, 30000, v)
	}
}

func TestSmoother_MovingAverage(t *testing.T) {
	s, err := NewSmoother(4, 100)
	require.NoError(t, err)

	assert.Equal(t, 100, s.Update(100)) // window: 100 100 100 100
	assert.Equal(t, 125, s.Update(200)) // 200 100 100 100
	assert.Equal(t, 150, s.Update(200)) // 200 200 100 100
	assert.Equal(t, 162, s.Update(150)) // 200 200 150 100 -> 650/4 truncated
	assert.Equal(t, 187, s.Update(200)) // 200 200 150 200 -> 750/4 truncated
	assert.Equal(t, 187, s.Average())
}

func TestSmoother_MatchesMeanOfWindow(t *testing.T) {
	const window = DefaultWindow
	s, err := NewSmoother(window, DefaultSlopeThreshold)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	first := 30000 + rng.Intn(800)

	// Before the window fills, history is the primed copies of the first sample.
	history := make([]float64, window)
	for i := range history {
		history[i] = float64(first)
	}
	s.Update(first)

	for i := 0; i < 4*window; i++ {
		raw := 30000 + rng.Intn(800)
		got := s.Update(raw)

		history = append(history[1:], float64(raw))
		want := int(math.Floor(stat.Mean(history, nil)))
		require.Equal(t, want, got, "sample %d", i)

		sum := 0
		for _, v := range s.buf {
			sum += v
		}
		require.Equal(t, sum, s.sum)
		require.GreaterOrEqual(t, s.cursor, 0)
		require.Less(t, s.cursor, window)
	}
}

func TestSmoother_SnapResetOnJump(t *testing.T) {
	s, err := NewSmoother(DefaultWindow, DefaultSlopeThreshold)
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		s.Update(10000 + i%7)
	}

	assert.Equal(t, 40000, s.Update(40000))
	assert.Equal(t, 0, s.cursor)
	assert.Equal(t, 40000*DefaultWindow, s.sum)

	// Downward jumps reset as well.
	assert.Equal(t, 5000, s.Update(5000))
}

func TestSmoother_ThresholdIsStrict(t *testing.T) {
	s, err := NewSmoother(4, 100)
	require.NoError(t, err)

	s.Update(1000)
	// Deviation exactly at the threshold is averaged, not reset.
	assert.Equal(t, 1025, s.Update(1100))
	// Deviation above the threshold resets.
	assert.Equal(t, 1126, s.Update(1126))
}

func TestSmoother_Reset(t *testing.T) {
	s, err := NewSmoother(8, 50)
	require.NoError(t, err)

	s.Update(10)
	s.Update(20)
	s.Reset(500)

	assert.Equal(t, 500, s.Average())
	assert.Equal(t, 500*8, s.sum)
	assert.Equal(t, 0, s.cursor)
	assert.Equal(t, 500, s.Update(500))
}

func TestScaleThreshold(t *testing.T) {
	tests := []struct {
		name             string
		threshold        int
		fromBits, toBits int
		want             int
	}{
		{"same resolution", 1000, 16, 16, 1000},
		{"finer converter", 1000, 16, 24, 256000},
		{"coarser converter", 1000, 16, 8, 3},
		{"never below one", 10, 16, 8, 1},
		{"rp2040 native", 1000, 16, 12, 62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleThreshold(tt.threshold, tt.fromBits, tt.toBits))
		})
	}
}
