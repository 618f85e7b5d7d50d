package sample

import (
	"log/slog"
	"time"

	"github.com/itohio/gotds/pkg/config"
	"github.com/itohio/gotds/pkg/probe"
)

// Sample is a probe reading in physical units, ready for the TDS engine.
type Sample struct {
	Timestamp time.Time
	Voltage   float32 // Raw probe voltage (V)
	TempC     float32 // Water temperature (°C)
}

// Converter is a function type that converts RawSample channel to Sample channel.
type Converter func(in <-chan probe.RawSample) <-chan Sample

// NewConverter creates a converter function that transforms RawSample to Sample.
// The output channel closes when the input channel closes.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}
	adc := cfg.ADC

	return func(in <-chan probe.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				select {
				case out <- convertSample(raw, adc):
				case <-time.After(time.Second):
					slog.Warn("sample: converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertSample converts a RawSample to Sample using the ADC configuration.
func convertSample(raw probe.RawSample, adc config.ADCConfig) Sample {
	return Sample{
		Timestamp: raw.Timestamp,
		Voltage:   adcToVoltage(raw.ADC, adc.VRef, adc.MaxCount()),
		TempC:     raw.TempC,
	}
}

// adcToVoltage converts ADC counts to volts against a full-scale count.
func adcToVoltage(counts uint16, vref float32, maxCount uint16) float32 {
	if maxCount == 0 {
		return 0
	}
	return float32(counts) / float32(maxCount) * vref
}
