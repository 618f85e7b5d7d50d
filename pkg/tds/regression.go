package tds

import "github.com/chewxy/math32"

// DeadzoneV is the compensated voltage at or below which regression models report 0 ppm.
const DeadzoneV float32 = 0.02

// Quadratic is y = A*x² + B*x + C.
type Quadratic struct {
	A float32 `yaml:"a"`
	B float32 `yaml:"b"`
	C float32 `yaml:"c"`
}

// Eval evaluates the polynomial at x without clamping.
func (q Quadratic) Eval(x float32) float32 {
	return q.A*x*x + q.B*x + q.C
}

// Inverse returns the non-negative x for which Eval(x) == y, choosing the
// smaller root when both are non-negative. It returns 0 when no real root exists.
func (q Quadratic) Inverse(y float32) float32 {
	if q.A == 0 {
		if q.B == 0 {
			return 0
		}
		return math32.Max(0, (y-q.C)/q.B)
	}

	disc := q.B*q.B - 4*q.A*(q.C-y)
	if disc < 0 {
		return 0
	}
	sq := math32.Sqrt(disc)
	x1 := (-q.B + sq) / (2 * q.A)
	x2 := (-q.B - sq) / (2 * q.A)

	switch {
	case x1 >= 0 && (x2 < 0 || x1 < x2):
		return x1
	case x2 >= 0:
		return x2
	default:
		return 0
	}
}

// Infer evaluates q at v for every mode.
func (q Quadratic) Infer(v float32, _ Mode) float32 {
	if inDeadzone(v) {
		return 0
	}
	return clampPPM(q.Eval(v))
}

// Direct holds one quadratic of voltage per deployment mode.
type Direct struct {
	Static Quadratic `yaml:"static"`
	Inline Quadratic `yaml:"inline"`
}

// Infer evaluates the quadratic selected by mode.
func (d Direct) Infer(v float32, mode Mode) float32 {
	if inDeadzone(v) {
		return 0
	}
	return clampPPM(d.forMode(mode).Eval(v))
}

func (d Direct) forMode(mode Mode) Quadratic {
	if mode == ModeInline {
		return d.Inline
	}
	return d.Static
}

// Composed chains two quadratics: the sensor curve maps voltage to an
// uncorrected reading s, then a per mode correction maps s to ppm:
//
//	realPPM = C + B*s + A*s²
type Composed struct {
	Sensor     Quadratic `yaml:"sensor"`
	Correction Direct    `yaml:"correction"`
}

// Infer evaluates the sensor curve and its mode correction.
func (c Composed) Infer(v float32, mode Mode) float32 {
	if inDeadzone(v) {
		return 0
	}
	s := c.Sensor.Eval(v)
	return clampPPM(c.Correction.forMode(mode).Eval(s))
}

// Built-in regression generations.
var (
	// SingleQuadratic is a least-squares fit of the factory table.
	SingleQuadratic = Quadratic{A: 111.49, B: 429.73, C: -1.51}

	// ComposedQuadratic corrects SingleQuadratic readings per mode.
	ComposedQuadratic = Composed{
		Sensor: SingleQuadratic,
		Correction: Direct{
			Static: Quadratic{A: -2.1e-6, B: 1.004, C: -0.8},
			Inline: Quadratic{A: 1.8e-5, B: 0.962, C: 1.9},
		},
	}

	// DirectQuadratic maps voltage straight to ppm per mode.
	DirectQuadratic = Direct{
		Static: Quadratic{A: 113.4, B: 425.8, C: 0.2},
		Inline: Quadratic{A: 104.9, B: 398.2, C: -2.7},
	}
)

var (
	_ Model = Quadratic{}
	_ Model = Direct{}
	_ Model = Composed{}
)

func inDeadzone(v float32) bool {
	return math32.IsNaN(v) || v <= DeadzoneV
}

// clampPPM folds negative and NaN concentrations to 0.
func clampPPM(ppm float32) float32 {
	if math32.IsNaN(ppm) || ppm < 0 {
		return 0
	}
	return ppm
}
