package config

import (
	"os"
	"testing"
	"time"

	"github.com/itohio/gotds/pkg/tds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	// Own directory per test: Watch observes the whole parent directory.
	tmpfile, err := os.CreateTemp(t.TempDir(), "test_config_*.yaml")
	require.NoError(t, err)

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, float32(3.3), cfg.ADC.VRef)
	assert.Equal(t, uint8(12), cfg.ADC.Bits)
	assert.Equal(t, float32(1.0), cfg.Engine.KFactor)
	assert.Equal(t, float32(0.5), cfg.Engine.TDSFactor)
	assert.Equal(t, float32(0.02), cfg.Engine.TempCoefficient)
	assert.Equal(t, "static", cfg.Engine.Mode)
	assert.Equal(t, "table", cfg.Calibration.Model)
	assert.Empty(t, cfg.Calibration.Points)
	assert.Equal(t, 100*time.Millisecond, cfg.Mock.SampleRate)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeTemp(t, `
serial:
  port: "COM4"
  baud_rate: 57600

adc:
  vref: 5.0
  bits: 10

engine:
  k_factor: 1.08
  tds_factor: 0.7
  temp_coefficient: 0.019
  mode: inline

calibration:
  model: direct

mock:
  tds: 600
  temp_c: 30
  noise_level: 0.01
  spike_every: 0
  sample_rate: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "COM4", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, float32(5.0), cfg.ADC.VRef)
	assert.Equal(t, uint8(10), cfg.ADC.Bits)
	assert.Equal(t, float32(1.08), cfg.Engine.KFactor)
	assert.Equal(t, float32(0.7), cfg.Engine.TDSFactor)
	assert.Equal(t, float32(0.019), cfg.Engine.TempCoefficient)
	assert.Equal(t, tds.ModeInline, cfg.ProbeMode())
	assert.Equal(t, float32(600), cfg.Mock.TDS)
	assert.Equal(t, 0, cfg.Mock.SpikeEvery)
	assert.Equal(t, 250*time.Millisecond, cfg.Mock.SampleRate)

	m, err := cfg.Model()
	require.NoError(t, err)
	assert.Equal(t, tds.DirectQuadratic, m)
}

func TestLoad_CustomTable(t *testing.T) {
	path := writeTemp(t, `
calibration:
  model: table
  points:
    - {v: 0.05, ppm: 0}
    - {v: 0.55, ppm: 250}
    - {v: 1.05, ppm: 500}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Calibration.Points, 3)

	m, err := cfg.Model()
	require.NoError(t, err)
	assert.InDelta(t, 125, m.Infer(0.3, tds.ModeStatic), 1e-3)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "invalid: yaml: content: [")

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown mode", content: "engine:\n  mode: submerged\n"},
		{name: "unknown model", content: "calibration:\n  model: cubic\n"},
		{name: "unsorted table", content: "calibration:\n  points:\n    - {v: 0.5, ppm: 0}\n    - {v: 0.1, ppm: 100}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_PartialYAML(t *testing.T) {
	path := writeTemp(t, `
engine:
  mode: inline
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Should use defaults for missing fields
	assert.Equal(t, "inline", cfg.Engine.Mode)
	assert.Equal(t, float32(1.0), cfg.Engine.KFactor)
	assert.Equal(t, float32(0.5), cfg.Engine.TDSFactor)
	assert.Equal(t, "table", cfg.Calibration.Model)
	assert.Equal(t, uint8(12), cfg.ADC.Bits)
}

func TestLoad_ZeroTDSFactorKept(t *testing.T) {
	cfg, err := Load(writeTemp(t, "engine:\n  tds_factor: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, float32(0), cfg.Engine.TDSFactor)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Engine.KFactor = 0.95
	cfg.Calibration.Model = "composed"

	path := writeTemp(t, "")
	require.NoError(t, cfg.Save(path))

	// Load it back and verify
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float32(0.95), loaded.Engine.KFactor)
	assert.Equal(t, "composed", loaded.Calibration.Model)
}

func TestADCConfig_MaxCount(t *testing.T) {
	assert.Equal(t, uint16(4095), ADCConfig{Bits: 12}.MaxCount())
	assert.Equal(t, uint16(1023), ADCConfig{Bits: 10}.MaxCount())
	assert.Equal(t, uint16(65535), ADCConfig{Bits: 16}.MaxCount())
	assert.Equal(t, uint16(65535), ADCConfig{Bits: 0}.MaxCount())
}
