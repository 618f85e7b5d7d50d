// Package tds converts raw TDS probe voltages into temperature-compensated
// concentration (ppm) and conductivity (µS/cm).
//
// The pipeline runs once per sampling tick:
//
//	ingest -> median filter -> temperature compensation -> model inference -> scaling
//
// Everything is float32 with fixed-size storage so the engine can run on a
// microcontroller. An Engine is not safe for concurrent use.
package tds

// State is the lifecycle state of an Engine.
type State uint8

const (
	// StateUninitialized means Begin has not been called yet.
	StateUninitialized State = iota
	// StateWarming means the buffer still holds default slots; output is biased toward 0.
	StateWarming
	// StateReady means every buffer slot holds a real sample.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWarming:
		return "warming"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Engine is the stateful TDS pipeline.
type Engine struct {
	model Model

	buf     Buffer
	scratch [BufferSize]float32
	begun   bool

	// Tuning, kept across Begin.
	kFactor   float32
	tdsFactor float32
	tempCoeff float32

	mode Mode

	// Results of the last Update.
	voltage float32
	tds     float32
	ec      float32
}

// New creates an engine with default tuning. A nil model selects the factory table.
func New(model Model) *Engine {
	if model == nil {
		model = DefaultTable()
	}
	return &Engine{
		model:     model,
		kFactor:   DefaultKFactor,
		tdsFactor: DefaultTDSFactor,
		tempCoeff: DefaultTempCoefficient,
		mode:      ModeStatic,
	}
}

// Begin resets the sample buffer, the last results and the mode.
// K-factor, TDS factor, temperature coefficient and model are kept.
func (e *Engine) Begin() {
	e.buf.Reset()
	e.mode = ModeStatic
	e.voltage, e.tds, e.ec = 0, 0, 0
	e.begun = true
}

// Update feeds one raw probe voltage and the water temperature through the
// pipeline and stores the results. An engine that was never begun is begun first.
func (e *Engine) Update(voltage, tempC float32) {
	if !e.begun {
		e.Begin()
	}

	e.buf.Ingest(voltage)
	filtered := e.buf.Median(&e.scratch)

	e.voltage = Compensate(filtered, tempC, e.tempCoeff)
	raw := e.model.Infer(e.voltage, e.mode)
	e.tds, e.ec = Finalize(raw, e.kFactor, e.tdsFactor)
}

// TDS returns the last computed concentration in ppm.
func (e *Engine) TDS() float32 { return e.tds }

// EC returns the last computed conductivity in µS/cm.
func (e *Engine) EC() float32 { return e.ec }

// Voltage returns the last filtered, temperature-compensated voltage.
func (e *Engine) Voltage() float32 { return e.voltage }

// State reports whether the engine is begun and its buffer warmed up.
func (e *Engine) State() State {
	switch {
	case !e.begun:
		return StateUninitialized
	case !e.buf.Full():
		return StateWarming
	default:
		return StateReady
	}
}

// Tuning setters take effect on the next Update.
func (e *Engine) SetKFactor(k float32) { e.kFactor = k }
func (e *Engine) SetTDSFactor(f float32) { e.tdsFactor = f }
func (e *Engine) SetTempCoefficient(c float32) { e.tempCoeff = c }
func (e *Engine) SetMode(m Mode) { e.mode = m }
func (e *Engine) KFactor() float32 { return e.kFactor }
func (e *Engine) TDSFactor() float32 { return e.tdsFactor }
func (e *Engine) TempCoefficient() float32 { return e.tempCoeff }
func (e *Engine) Mode() Mode { return e.mode }
func (e *Engine) Model() Model { return e.model }

// SetModel swaps the inference strategy; the buffer is kept. nil is ignored.
func (e *Engine) SetModel(m Model) {
	if m != nil {
		e.model = m
	}
}
