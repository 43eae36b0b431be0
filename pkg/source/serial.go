// Package source provides host voltage samplers: a serial ADC bridge, a
// simulated CV source and recorded WAV playback.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/noteperfect/pkg/device"
)

const (
	// DefaultBaudRate is the standard baud rate of the ADC bridge.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 256
)

// Serial samples an ADC bridge that streams one reading per line over a
// serial port. A line holds either a raw count or "micros,count".
type Serial struct {
	device.Scale

	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	samples   chan int
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a serial sampler with the specified port, baud rate and buffer size.
func NewSerial(port string, baudRate int, bufSize int, scale device.Scale) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		Scale:    scale,
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		samples:  make(chan int, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns the names of available serial ports.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the serial port and starts reading samples.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readSamples(port)

	return nil
}

// Close closes the port. Pending and future Sample calls return io.EOF once
// buffered readings are drained.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// IsConnected returns whether the port is currently open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Sample blocks until the next reading arrives.
func (d *Serial) Sample() (int, error) {
	raw, ok := <-d.samples
	if !ok {
		return 0, io.EOF
	}
	return raw, nil
}

// readSamples reads lines from r until it fails or the sampler is closed.
// It owns the samples channel and closes it on exit.
func (d *Serial) readSamples(r io.Reader) {
	defer close(d.samples)
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readSamples: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		raw, err := parseLine(line, d.MaxCount())
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case d.samples <- raw:
		case <-d.ctx.Done():
			return
		default:
			log.Printf("Samples channel full, dropping sample")
		}
	}

	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// parseLine parses a reading line.
// Format: count or micros,count
// Example: 1234567890123,32768
func parseLine(line string, maxCount int) (int, error) {
	parts := strings.Split(line, ",")

	var field string
	switch len(parts) {
	case 1:
		field = parts[0]
	case 2:
		if _, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64); err != nil {
			return 0, fmt.Errorf("invalid timestamp: %w", err)
		}
		field = parts[1]
	default:
		return 0, fmt.Errorf("invalid line format: expected 1 or 2 comma-separated values, got %d", len(parts))
	}

	raw, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid reading: %w", err)
	}
	if raw > uint64(maxCount) {
		return 0, fmt.Errorf("reading out of range: %d (max %d)", raw, maxCount)
	}

	return int(raw), nil
}
