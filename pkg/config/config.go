package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/gotds/pkg/tds"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	ADC         ADCConfig         `yaml:"adc"`
	Engine      EngineConfig      `yaml:"engine"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ADCConfig describes the converter on the probe MCU, used to turn counts into volts.
type ADCConfig struct {
	VRef float32 `yaml:"vref"` // Reference voltage (V)
	Bits uint8   `yaml:"bits"` // Resolution in bits
}

// MaxCount returns the largest count the ADC can report.
func (a ADCConfig) MaxCount() uint16 {
	if a.Bits == 0 || a.Bits > 16 {
		return 0xFFFF
	}
	return uint16(1<<a.Bits - 1)
}

// EngineConfig contains the tunable engine parameters.
type EngineConfig struct {
	KFactor         float32 `yaml:"k_factor"`
	TDSFactor       float32 `yaml:"tds_factor"`       // TDS to EC conversion (0.5 or 0.7)
	TempCoefficient float32 `yaml:"temp_coefficient"` // Per °C
	Mode            string  `yaml:"mode"`             // static | inline
}

// CalibrationConfig selects the inference model.
type CalibrationConfig struct {
	Model  string         `yaml:"model"`            // table | quadratic | composed | direct
	Points []tds.CalPoint `yaml:"points,omitempty"` // Custom table, only used by the table model
}

// MockConfig contains mock probe configuration.
type MockConfig struct {
	TDS          float32       `yaml:"tds"`           // Simulated concentration (ppm)
	TempC        float32       `yaml:"temp_c"`        // Simulated water temperature (°C)
	NoiseLevel   float32       `yaml:"noise_level"`   // Noise amplitude (V)
	SpikeEvery   int           `yaml:"spike_every"`   // Emit a bubble spike every N samples (0 = never)
	SpikeVoltage float32       `yaml:"spike_voltage"` // Spike amplitude added to the signal (V)
	SampleRate   time.Duration `yaml:"sample_rate"`   // Interval between samples
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		ADC: ADCConfig{
			VRef: 3.3,
			Bits: 12,
		},
		Engine: EngineConfig{
			KFactor:         tds.DefaultKFactor,
			TDSFactor:       tds.DefaultTDSFactor,
			TempCoefficient: tds.DefaultTempCoefficient,
			Mode:            tds.ModeStatic.String(),
		},
		Calibration: CalibrationConfig{
			Model: tds.GenerationTable.String(),
		},
		Mock: MockConfig{
			TDS:          250,
			TempC:        24,
			NoiseLevel:   0.004,
			SpikeEvery:   25,
			SpikeVoltage: 0.8,
			SampleRate:   100 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields that are parsed into engine types.
// Numeric tuning is not range checked; the engine fails soft on odd values.
func (c *Config) Validate() error {
	if _, err := tds.ParseMode(c.Engine.Mode); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if _, err := c.Model(); err != nil {
		return fmt.Errorf("invalid calibration config: %w", err)
	}
	return nil
}

// ProbeMode returns the configured deployment mode, static when unparsable.
func (c *Config) ProbeMode() tds.Mode {
	m, _ := tds.ParseMode(c.Engine.Mode)
	return m
}

// Model builds the configured calibration model.
// Custom points replace the factory table for the table model.
func (c *Config) Model() (tds.Model, error) {
	gen, err := tds.ParseGeneration(c.Calibration.Model)
	if err != nil {
		return nil, err
	}
	if gen == tds.GenerationTable && len(c.Calibration.Points) > 0 {
		t, err := tds.NewTable(c.Calibration.Points)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return tds.NewModel(gen), nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// A zero TDS factor is kept: it disables EC reporting.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.ADC.VRef == 0 {
		c.ADC.VRef = def.ADC.VRef
	}
	if c.ADC.Bits == 0 {
		c.ADC.Bits = def.ADC.Bits
	}

	if c.Engine.KFactor == 0 {
		c.Engine.KFactor = def.Engine.KFactor
	}
	if c.Engine.Mode == "" {
		c.Engine.Mode = def.Engine.Mode
	}

	if c.Calibration.Model == "" {
		c.Calibration.Model = def.Calibration.Model
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
