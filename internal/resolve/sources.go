package resolve

import "math"

// Source enumerates where a resolved value came from. Every resolved field
// order, position, and join key carries its source; downstream status
// reporting and the export step both consume it.
type Source int

const (
	// SourceAuto is the heuristic fallback when no explicit source supplied
	// a value.
	SourceAuto Source = iota
	// SourceDatasetDefault is a fixed default for a recognized dataset shape.
	SourceDatasetDefault
	// SourcePreset is the active named configuration.
	SourcePreset
	// SourcePerImagePrior is an existing sidecar for this exact image.
	SourcePerImagePrior
)

func (s Source) String() string {
	switch s {
	case SourcePerImagePrior:
		return "per-image"
	case SourcePreset:
		return "preset"
	case SourceDatasetDefault:
		return "dataset"
	default:
		return "auto"
	}
}

// Position is a fractional coordinate pair in [0,1]x[0,1] relative to image
// dimensions, carried at 4-decimal precision.
type Position struct {
	X float64
	Y float64
}

// Round4 quantizes v to 4 decimals. Positions are stored and compared at
// this precision to avoid cumulative drift across repeated loads and saves.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Normalize clamps the position into [0,1] on both axes at 4-decimal
// precision.
func (p Position) Normalize() Position {
	clamp := func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return Round4(v)
	}
	return Position{X: clamp(p.X), Y: clamp(p.Y)}
}
