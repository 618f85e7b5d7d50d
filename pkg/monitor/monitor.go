package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/gotds/pkg/config"
	"github.com/itohio/gotds/pkg/sample"
	"github.com/itohio/gotds/pkg/tds"
)

var _ TDSMonitor = (*Monitor)(nil)

// Reading is the engine output for one processed sample.
type Reading struct {
	Timestamp  time.Time
	RawVoltage float32   // Probe voltage as received (V)
	TempC      float32   // Water temperature (°C)
	Voltage    float32   // Filtered and compensated voltage (V)
	TDS        float32   // ppm
	EC         float32   // µS/cm
	State      tds.State // Engine warm-up state after this sample
}

// TDSMonitor feeds samples through a TDS engine and publishes readings.
type TDSMonitor interface {
	ProcessSamples(input <-chan sample.Sample)
	Apply(cfg *config.Config) error
	Latest() Reading
	OnUpdate(func(r Reading))
}

// Monitor owns a tds.Engine. The engine is not safe for concurrent use, so every
// Update and every tuning change goes through mu: sample processing and config
// reloads may run on different goroutines.
type Monitor struct {
	mu       sync.Mutex
	engine   *tds.Engine
	mode     tds.Mode // Configured mode, restored after every Begin
	latest   Reading
	shutdown bool // Set when the input channel closes, prevents further callbacks

	callbacks []func(r Reading)
	cbMu      sync.RWMutex
}

// New creates a monitor with an engine tuned from cfg.
func New(cfg *config.Config) (*Monitor, error) {
	m := &Monitor{engine: tds.New(nil)}
	if err := m.Apply(cfg); err != nil {
		return nil, err
	}
	m.Reset()
	return m, nil
}

// Apply pushes engine tuning and the calibration model from cfg.
// It can be called at any time; changes take effect on the next sample.
func (m *Monitor) Apply(cfg *config.Config) error {
	model, err := cfg.Model()
	if err != nil {
		return err
	}
	mode := cfg.ProbeMode()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.engine.SetModel(model)
	m.engine.SetKFactor(cfg.Engine.KFactor)
	m.engine.SetTDSFactor(cfg.Engine.TDSFactor)
	m.engine.SetTempCoefficient(cfg.Engine.TempCoefficient)
	m.engine.SetMode(mode)
	m.mode = mode

	slog.Info("monitor: engine configured",
		"model", cfg.Calibration.Model,
		"mode", mode.String(),
		"k_factor", cfg.Engine.KFactor,
		"tds_factor", cfg.Engine.TDSFactor,
		"temp_coefficient", cfg.Engine.TempCoefficient,
	)
	return nil
}

// Reset restarts warm-up by clearing the sample buffer. Tuning and the
// configured mode are kept.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Begin()
	m.engine.SetMode(m.mode)
	m.latest = Reading{State: m.engine.State()}
}

// ProcessSamples runs every sample from input through the engine until input closes.
func (m *Monitor) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample updates the engine and notifies callbacks outside the lock.
func (m *Monitor) processSample(s sample.Sample) {
	m.mu.Lock()
	m.engine.Update(s.Voltage, s.TempC)
	r := Reading{
		Timestamp:  s.Timestamp,
		RawVoltage: s.Voltage,
		TempC:      s.TempC,
		Voltage:    m.engine.Voltage(),
		TDS:        m.engine.TDS(),
		EC:         m.engine.EC(),
		State:      m.engine.State(),
	}
	m.latest = r
	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks(r)
	}
}

// Latest returns the most recent reading.
func (m *Monitor) Latest() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// OnUpdate registers a callback invoked after every processed sample.
// Callbacks run on the processing goroutine and should return quickly.
func (m *Monitor) OnUpdate(callback func(r Reading)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new processing chain.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

func (m *Monitor) notifyCallbacks(r Reading) {
	m.cbMu.RLock()
	callbacks := make([]func(r Reading), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(r)
		}
	}
}
