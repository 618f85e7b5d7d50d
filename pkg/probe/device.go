package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the probe MCU's UART speed.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 100
	// DefaultMaxCount is the full-scale count of a 12-bit ADC.
	DefaultMaxCount = 4095
)

// RawSample is one tick reported by the probe MCU.
type RawSample struct {
	Timestamp time.Time
	ADC       uint16  // Probe ADC counts
	TempC     float32 // Water temperature (°C)
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads probe samples from an MCU over a serial line.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	maxCount uint16

	conn      serial.Port
	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a Serial device. Zero baudRate, bufSize or maxCount select defaults.
func New(port string, baudRate int, bufSize int, maxCount uint16) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if maxCount == 0 {
		maxCount = DefaultMaxCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		maxCount: maxCount,
		samples:  make(chan RawSample, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
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

	d.rearm()
	d.conn = port
	d.connected = true

	go d.readSamples(d.ctx, d.samples, port)

	return nil
}

// Close closes the connection and stops reading samples.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			slog.Warn("probe: error closing serial port", "port", d.port, "err", err)
		}
		d.conn = nil
	}

	d.connected = false
	close(d.samples)

	return nil
}

// Samples returns the channel for reading samples. Every Connect after a Close
// starts a new channel, so call Samples after Connect.
func (d *Serial) Samples() <-chan RawSample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.samples
}

// rearm replaces the context and channel spent by a previous Close.
// Must be called with mu held.
func (d *Serial) rearm() {
	if d.ctx.Err() == nil {
		return
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.samples = make(chan RawSample, d.bufSize)
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readSamples scans lines from r until EOF or Close. ctx and out belong to the
// connection that started the reader; out is only sent to while ctx is live.
func (d *Serial) readSamples(ctx context.Context, out chan<- RawSample, r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("probe: panic in reader", "panic", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && ctx.Err() == nil {
				slog.Error("probe: error reading from serial port", "port", d.port, "err", err)
			}
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sample, err := parseLine(line, d.maxCount)
		if err != nil {
			slog.Warn("probe: failed to parse line", "line", line, "err", err)
			continue
		}

		// Close cancels ctx and closes out under the write lock, so a live ctx
		// seen under the read lock means out is still open.
		d.mu.RLock()
		if ctx.Err() == nil {
			select {
			case out <- sample:
			default:
				slog.Warn("probe: samples channel full, dropping sample")
			}
		}
		d.mu.RUnlock()
	}
}

// parseLine parses a line from the MCU into a RawSample.
// Format: unix_micros,adc_counts,temp_c
// Example: 1234567890123,620,24.75
func parseLine(line string, maxCount uint16) (RawSample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return RawSample{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RawSample{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	adc, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return RawSample{}, fmt.Errorf("invalid adc reading: %w", err)
	}
	if adc > uint64(maxCount) {
		return RawSample{}, fmt.Errorf("adc reading out of range: %d (max %d)", adc, maxCount)
	}

	temp, err := strconv.ParseFloat(parts[2], 32)
	if err != nil {
		return RawSample{}, fmt.Errorf("invalid temperature: %w", err)
	}

	return RawSample{
		Timestamp: time.UnixMicro(timestampMicros),
		ADC:       uint16(adc),
		TempC:     float32(temp),
	}, nil
}
