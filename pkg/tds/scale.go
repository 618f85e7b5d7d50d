package tds

const (
	// DefaultKFactor leaves the model output untouched.
	DefaultKFactor float32 = 1.0

	// DefaultTDSFactor converts ppm to µS/cm (EC = TDS / 0.5).
	DefaultTDSFactor float32 = 0.5

	// RegionalTDSFactor is the 0.7 conversion used by some meters and regions.
	RegionalTDSFactor float32 = 0.7
)

// Finalize applies the K-factor tuning and derives EC from the tuned TDS.
// A non-positive tdsFactor reports EC as 0.
func Finalize(raw, kFactor, tdsFactor float32) (tds, ec float32) {
	tds = raw * kFactor
	if tdsFactor > 0 {
		ec = tds / tdsFactor
	}
	return tds, ec
}
