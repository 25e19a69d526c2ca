package overlay

import (
	"math"

	"slatelink/internal/resolve"
)

// ClampSafe forces a position into the safe margin: an inset of marginPct
// percent from every edge. The result carries 4-decimal precision.
func ClampSafe(p resolve.Position, marginPct float64) resolve.Position {
	margin := marginPct / 100
	lo, hi := margin, 1-margin
	clamp := func(v float64) float64 {
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		return resolve.Round4(v)
	}
	return resolve.Position{X: clamp(p.X), Y: clamp(p.Y)}
}

// SnapToGrid rounds the position to the nearest snapPct grid line before
// clamping into the safe margin.
func SnapToGrid(p resolve.Position, snapPct, marginPct float64) resolve.Position {
	step := snapPct / 100
	if step > 0 {
		p = resolve.Position{
			X: math.Round(p.X/step) * step,
			Y: math.Round(p.Y/step) * step,
		}
	}
	return ClampSafe(p, marginPct)
}
