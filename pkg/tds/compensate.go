package tds

const (
	// ReferenceTempC is the temperature every model is calibrated at.
	ReferenceTempC float32 = 25.0

	// DefaultTempCoefficient is the conductivity change per °C (2%).
	DefaultTempCoefficient float32 = 0.02
)

// Compensate normalizes a voltage measured at tempC to its equivalent at ReferenceTempC:
//
//	v_ref = v / (1 + coeff*(T - 25))
//
// Temperature is not clamped. A coefficient that drives the denominator to zero
// or below yields whatever float division gives (±Inf, NaN); later stages fold
// those to 0.
func Compensate(voltage, tempC, coeff float32) float32 {
	return voltage / (1 + coeff*(tempC-ReferenceTempC))
}
