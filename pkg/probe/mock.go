package probe

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/gotds/pkg/config"
	"github.com/itohio/gotds/pkg/tds"
)

// Mock simulates a TDS probe MCU for testing and development.
// The probe voltage for the requested concentration comes from the inverse of
// the static direct model, then gets temperature drift, noise and periodic
// bubble spikes added before quantization.
type Mock struct {
	cfg *config.MockConfig
	adc config.ADCConfig

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Simulation state
	tdsPPM    float32
	tempC     float32
	startTime time.Time
	count     int
}

// NewMock creates a new mocked probe. nil cfg uses the config defaults.
func NewMock(cfg *config.MockConfig, adc config.ADCConfig) *Mock {
	def := config.Default()
	if cfg == nil {
		cfg = &def.Mock
	}
	mc := *cfg
	if mc.SampleRate <= 0 {
		mc.SampleRate = def.Mock.SampleRate
	}
	if adc.VRef == 0 || adc.Bits == 0 {
		adc = def.ADC
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     &mc,
		adc:     adc,
		samples: make(chan RawSample, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		tdsPPM:  mc.TDS,
		tempC:   mc.TempC,
	}
}

// Connect simulates connecting to the probe.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.rearm()
	m.connected = true
	m.startTime = time.Now()
	m.count = 0

	go m.generateSamples(m.ctx, m.samples)

	return nil
}

// Close stops the mocked probe.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples. Every Connect after a Close
// starts a new channel, so call Samples after Connect.
func (m *Mock) Samples() <-chan RawSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.samples
}

// rearm replaces the context and channel spent by a previous Close.
// Must be called with mu held.
func (m *Mock) rearm() {
	if m.ctx.Err() == nil {
		return
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.samples = make(chan RawSample, DefaultBufferSize)
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Set changes the simulated water concentration and temperature.
func (m *Mock) Set(tdsPPM, tempC float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tdsPPM = tdsPPM
	m.tempC = tempC
}

// generateSamples generates simulated samples into out until ctx is cancelled.
func (m *Mock) generateSamples(ctx context.Context, out chan<- RawSample) {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample := m.generateSample(time.Now())

			m.mu.RLock()
			if ctx.Err() == nil {
				select {
				case out <- sample:
				default:
					// Channel full, skip
				}
			}
			m.mu.RUnlock()
		}
	}
}

// generateSample generates a single simulated sample.
func (m *Mock) generateSample(now time.Time) RawSample {
	m.mu.Lock()
	ppm, tempC := m.tdsPPM, m.tempC
	elapsed := now.Sub(m.startTime)
	m.count++
	n := m.count
	m.mu.Unlock()

	// Voltage the probe would read at 25 °C, then drifted to the water temperature.
	v := float64(tds.DirectQuadratic.Static.Inverse(ppm))
	v *= 1 + float64(tds.DefaultTempCoefficient)*(float64(tempC)-float64(tds.ReferenceTempC))

	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		float64(m.cfg.NoiseLevel) * 0.5
	v += noise

	// Bubble passing the electrodes.
	if m.cfg.SpikeEvery > 0 && n%m.cfg.SpikeEvery == 0 {
		v += float64(m.cfg.SpikeVoltage)
	}

	return RawSample{
		Timestamp: now,
		ADC:       voltageToCounts(v, float64(m.adc.VRef), m.adc.MaxCount()),
		TempC:     tempC,
	}
}

// voltageToCounts quantizes v into the ADC range.
func voltageToCounts(v, vref float64, maxCount uint16) uint16 {
	counts := math.Round(v / vref * float64(maxCount))
	if counts < 0 {
		return 0
	}
	if counts > float64(maxCount) {
		return maxCount
	}
	return uint16(counts)
}
