//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/gotds/pkg/sensor"
)

var (
	adcTDS        machine.ADC
	adcThermistor machine.ADC
	uart          = machine.UART0

	// Timing
	lastADCRead time.Time

	// Output line buffer, reused every tick
	lineBuffer [32]byte
)

func main() {
	// Configure ADC pins and set up ADCs with highest resolution
	PIN_TDS.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_THERMISTOR.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcTDS = machine.ADC{Pin: PIN_TDS}
	adcThermistor = machine.ADC{Pin: PIN_THERMISTOR}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}

	adcTDS.Configure(adcConfig)
	adcThermistor.Configure(adcConfig)

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastADCRead = time.Now()

	for {
		now := time.Now()
		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			outputSample(now)
			lastADCRead = now
		}
		time.Sleep(time.Millisecond)
	}
}

// outputSample reads both channels once and writes a probe line.
// machine.ADC.Get returns a left-aligned 16-bit value regardless of resolution.
func outputSample(now time.Time) {
	const shift = 16 - ADC_RESOLUTION
	const maxCount = 1<<ADC_RESOLUTION - 1

	tdsCounts := adcTDS.Get() >> shift
	tempC := sensor.ThermistorC(adcThermistor.Get()>>shift, maxCount)

	line := sensor.AppendLine(lineBuffer[:0], now.UnixMicro(), tdsCounts, tempC)
	uart.Write(line)
}
