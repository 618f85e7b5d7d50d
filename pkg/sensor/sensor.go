// Package sensor holds the probe MCU side helpers: thermistor conversion and
// the serial line encoder. It only depends on packages TinyGo can build, so the
// firmware and host tests share one implementation of the line format.
package sensor

import (
	"strconv"

	"github.com/chewxy/math32"
)

const (
	ThermistorNominalOhm = 10000 // Resistance at 25 °C
	ThermistorBeta       = 3950
	SeriesResistorOhm    = 10000

	kelvinOffset  = 273.15
	nominalTempK  = 25 + kelvinOffset
	fallbackTempC = 25
)

// ThermistorC converts NTC divider counts (thermistor on the low side) into
// water temperature with the Beta equation. Rail readings, meaning an open or
// shorted thermistor, return NaN.
func ThermistorC(counts, maxCount uint16) float32 {
	if counts == 0 || counts >= maxCount {
		return math32.NaN()
	}
	r := SeriesResistorOhm * float32(counts) / float32(maxCount-counts)
	invT := 1/float32(nominalTempK) + math32.Log(r/ThermistorNominalOhm)/ThermistorBeta
	return 1/invT - kelvinOffset
}

// AppendLine appends one probe line "unix_micros,adc_counts,temp_c\n" to buf.
// A NaN temperature is written as 25 °C so the host applies no compensation
// instead of dropping the line.
func AppendLine(buf []byte, micros int64, counts uint16, tempC float32) []byte {
	if math32.IsNaN(tempC) {
		tempC = fallbackTempC
	}
	buf = strconv.AppendInt(buf, micros, 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, uint64(counts), 10)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, float64(tempC), 'f', 2, 32)
	return append(buf, '\n')
}
