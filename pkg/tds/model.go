package tds

import (
	"fmt"
	"strings"
)

// Mode selects the deployment context a calibrated model applies to.
type Mode uint8

const (
	// ModeStatic is a probe in still water (tank, cup).
	ModeStatic Mode = iota
	// ModeInline is a probe mounted in a pipe with flowing water.
	ModeInline
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeInline:
		return "inline"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses "static" or "inline" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "":
		return ModeStatic, nil
	case "inline", "flow":
		return ModeInline, nil
	default:
		return ModeStatic, fmt.Errorf("unknown probe mode %q", s)
	}
}

// Model converts a temperature-compensated voltage into a raw concentration (ppm).
// Implementations must never return a negative value.
type Model interface {
	Infer(v float32, mode Mode) float32
}

// Generation identifies one of the built-in calibration models.
type Generation uint8

const (
	// GenerationTable interpolates the built-in breakpoint table.
	GenerationTable Generation = iota
	// GenerationQuadratic evaluates one quadratic of voltage for every mode.
	GenerationQuadratic
	// GenerationComposed corrects a quadratic sensor reading with a second, per mode quadratic.
	GenerationComposed
	// GenerationDirect evaluates a quadratic of voltage with per mode coefficients.
	GenerationDirect
)

var generationNames = [...]string{
	GenerationTable:     "table",
	GenerationQuadratic: "quadratic",
	GenerationComposed:  "composed",
	GenerationDirect:    "direct",
}

func (g Generation) String() string {
	if int(g) < len(generationNames) {
		return generationNames[g]
	}
	return fmt.Sprintf("generation(%d)", uint8(g))
}

// ParseGeneration maps a model name to its Generation.
func ParseGeneration(s string) (Generation, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return GenerationTable, nil
	}
	for g, n := range generationNames {
		if n == name {
			return Generation(g), nil
		}
	}
	return GenerationTable, fmt.Errorf("unknown calibration model %q", s)
}

// NewModel returns the built-in model for g. Unknown generations fall back to the table.
func NewModel(g Generation) Model {
	switch g {
	case GenerationQuadratic:
		return SingleQuadratic
	case GenerationComposed:
		return ComposedQuadratic
	case GenerationDirect:
		return DirectQuadratic
	default:
		return DefaultTable()
	}
}
