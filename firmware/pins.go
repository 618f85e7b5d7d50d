//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 100 // One output line per tick; filtering happens on the host

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// ADC pins
	PIN_TDS        = machine.A1 // TDS probe analog output
	PIN_THERMISTOR = machine.A2 // NTC divider, thermistor on the low side

	// Serial configuration
	// Format "unix_micros,adc_counts,temp_c\n", e.g. "1234567890123456,4095,-10.25\n"
	// is ~30 bytes max per line. 10 lines/sec * 30 bytes = 300 bytes/sec,
	// so 115200 baud has plenty of headroom.
	UART_BAUD_RATE = 115200
)
