package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/itohio/noteperfect/pkg/device"
)

const wavBufferFrames = 4096

// WAV samples the first channel of a recorded CV signal, one frame per Sample
// call, as fast as the caller consumes it. Signed PCM is offset so the most
// negative value reads as count 0.
type WAV struct {
	device.Scale

	file     *os.File
	decoder  *wav.Decoder
	buf      *audio.IntBuffer
	n, pos   int
	channels int
	offset   int
	rate     int
}

// OpenWAV opens a WAV recording. referenceMV is the voltage represented by
// the full-scale sample value.
func OpenWAV(path string, referenceMV int) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if format.NumChannels < 1 || bitDepth < 8 || bitDepth > 24 {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported WAV format: %d channels, %d-bit", format.NumChannels, bitDepth)
	}

	offset := 1 << (bitDepth - 1)
	if bitDepth == 8 {
		// 8-bit PCM is stored unsigned.
		offset = 0
	}

	return &WAV{
		Scale:    device.Scale{Bits: bitDepth, ReferenceMV: referenceMV},
		file:     f,
		decoder:  decoder,
		buf:      &audio.IntBuffer{Format: format, Data: make([]int, wavBufferFrames*format.NumChannels)},
		channels: format.NumChannels,
		offset:   offset,
		rate:     format.SampleRate,
	}, nil
}

// SampleRate returns the recording's frame rate in Hz.
func (w *WAV) SampleRate() int { return w.rate }

// Sample returns the next frame. It returns io.EOF at the end of the recording.
func (w *WAV) Sample() (int, error) {
	if w.pos >= w.n {
		n, err := w.decoder.PCMBuffer(w.buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("failed to decode recording: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		w.n = n
		w.pos = 0
	}

	raw := w.buf.Data[w.pos] + w.offset
	w.pos += w.channels

	if raw < 0 {
		raw = 0
	} else if raw > w.MaxCount() {
		raw = w.MaxCount()
	}
	return raw, nil
}

// Close closes the recording.
func (w *WAV) Close() error {
	return w.file.Close()
}
