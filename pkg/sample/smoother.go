// Package sample smooths raw converter readings before quantization.
package sample

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultWindow is the number of raw samples averaged by the smoother.
	DefaultWindow = 128
	// DefaultSlopeThreshold is the raw-count jump that discards the averaging history.
	DefaultSlopeThreshold = 1000
)

// Smoother is a fixed-length moving average over raw ADC counts.
//
// A sample that deviates from the current average by more than the slope
// threshold refills the whole window with that sample, so legitimate steps
// in the source are tracked at once instead of being ramped over the window.
// The first sample after construction primes the window the same way.
type Smoother struct {
	buf       []int // ring of the last len(buf) samples
	sum       int   // always the sum of buf
	cursor    int   // next slot to overwrite, in [0, len(buf))
	shift     uint  // log2(len(buf))
	threshold int
	average   int
	primed    bool
}

// NewSmoother creates a smoother averaging window samples. window must be a
// positive power of two so the average is a shift of the running sum.
func NewSmoother(window, slopeThreshold int) (*Smoother, error) {
	if window <= 0 || window&(window-1) != 0 {
		return nil, fmt.Errorf("window must be a positive power of two, got %d", window)
	}
	if slopeThreshold < 0 {
		return nil, fmt.Errorf("slope threshold must not be negative, got %d", slopeThreshold)
	}

	return &Smoother{
		buf:       make([]int, window),
		shift:     uint(bits.TrailingZeros(uint(window))),
		threshold: slopeThreshold,
	}, nil
}

// Update feeds one raw sample and returns the smoothed average.
func (s *Smoother) Update(raw int) int {
	if !s.primed || abs(s.average-raw) > s.threshold {
		s.Reset(raw)
		return s.average
	}

	s.sum -= s.buf[s.cursor]
	s.sum += raw
	s.buf[s.cursor] = raw
	s.cursor++
	if s.cursor == len(s.buf) {
		s.cursor = 0
	}
	s.average = s.sum >> s.shift

	return s.average
}

// Reset discards the history and fills the window with raw.
func (s *Smoother) Reset(raw int) {
	for i := range s.buf {
		s.buf[i] = raw
	}
	s.sum = raw << s.shift
	s.cursor = 0
	s.average = raw
	s.primed = true
}

// Average returns the most recent smoothed value.
func (s *Smoother) Average() int {
	return s.average
}

// Window returns the number of samples averaged.
func (s *Smoother) Window() int {
	return len(s.buf)
}

// ScaleThreshold converts a slope threshold given in counts of a fromBits
// converter to counts of a toBits converter. The result is at least 1 so a
// positive threshold never turns into a passthrough.
func ScaleThreshold(threshold, fromBits, toBits int) int {
	switch {
	case toBits > fromBits:
		return threshold << (toBits - fromBits)
	case toBits < fromBits:
		return max(threshold>>(fromBits-toBits), 1)
	default:
		return threshold
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
