package tds

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
)

// CalPoint is one calibration breakpoint: probe voltage at 25 °C and its TDS.
type CalPoint struct {
	V   float32 `yaml:"v"`
	PPM float32 `yaml:"ppm"`
}

// Factory table, 0-1000 ppm in 20 ppm steps.
var calTable = []CalPoint{
	{0.0200, 0.0}, {0.0459, 20.0}, {0.0913, 40.0}, {0.1355, 60.0},
	{0.1789, 80.0}, {0.2213, 100.0}, {0.2629, 120.0}, {0.3037, 140.0},
	{0.3438, 160.0}, {0.3831, 180.0}, {0.4218, 200.0}, {0.4599, 220.0},
	{0.4973, 240.0}, {0.5341, 260.0}, {0.5704, 280.0}, {0.6062, 300.0},
	{0.6414, 320.0}, {0.6762, 340.0}, {0.7105, 360.0}, {0.7444, 380.0},
	{0.7778, 400.0}, {0.8108, 420.0}, {0.8434, 440.0}, {0.8756, 460.0},
	{0.9075, 480.0}, {0.9389, 500.0}, {0.9701, 520.0}, {1.0009, 540.0},
	{1.0314, 560.0}, {1.0615, 580.0}, {1.0914, 600.0}, {1.1209, 620.0},
	{1.1502, 640.0}, {1.1792, 660.0}, {1.2079, 680.0}, {1.2363, 700.0},
	{1.2645, 720.0}, {1.2925, 740.0}, {1.3202, 760.0}, {1.3476, 780.0},
	{1.3749, 800.0}, {1.4019, 820.0}, {1.4286, 840.0}, {1.4552, 860.0},
	{1.4816, 880.0}, {1.5077, 900.0}, {1.5337, 920.0}, {1.5594, 940.0},
	{1.5850, 960.0}, {1.6104, 980.0}, {1.6355, 1000.0},
}

// Table is a piecewise-linear calibration model over ascending breakpoints.
// The first breakpoint voltage is the deadzone edge; past the last breakpoint
// the final segment is extended linearly. Mode is ignored.
type Table struct {
	points []CalPoint
}

var _ Model = (*Table)(nil)

// DefaultTable returns the factory calibration table.
func DefaultTable() *Table {
	return &Table{points: calTable}
}

// NewTable builds a table from custom breakpoints. It needs at least two points
// with strictly ascending voltages. The points are copied.
func NewTable(points []CalPoint) (*Table, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("calibration table needs at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !(points[i].V > points[i-1].V) {
			return nil, fmt.Errorf("calibration table voltages must be strictly ascending: point %d (%.4fV) after %.4fV",
				i, points[i].V, points[i-1].V)
		}
	}

	cp := make([]CalPoint, len(points))
	copy(cp, points)
	return &Table{points: cp}, nil
}

// Points returns a copy of the breakpoints.
func (t *Table) Points() []CalPoint {
	cp := make([]CalPoint, len(t.points))
	copy(cp, t.points)
	return cp
}

// Infer interpolates the concentration for compensated voltage v.
func (t *Table) Infer(v float32, _ Mode) float32 {
	p := t.points
	last := len(p) - 1

	// Deadzone: dry or disconnected probe. NaN lands here too.
	if math32.IsNaN(v) || v <= p[0].V {
		return 0
	}

	if v >= p[last].V {
		m := slope(p[last-1], p[last])
		return clampPPM(p[last].PPM + m*(v-p[last].V))
	}

	// First breakpoint above v; its predecessor opens the bracket.
	i := sort.Search(len(p), func(i int) bool { return p[i].V > v }) - 1
	return clampPPM(p[i].PPM + slope(p[i], p[i+1])*(v-p[i].V))
}

func slope(a, b CalPoint) float32 {
	return (b.PPM - a.PPM) / (b.V - a.V)
}
