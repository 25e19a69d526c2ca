package overlay

import "math"

// IntensityGrid is the pixel-intensity view an external image-decoding
// collaborator supplies: luminance values in [0,1] at a downscaled
// resolution.
type IntensityGrid interface {
	Bounds() (width, height int)
	At(x, y int) float64
}

// Corner names one of the four image corners.
type Corner string

const (
	CornerBottomLeft  Corner = "bottom_left"
	CornerBottomRight Corner = "bottom_right"
	CornerTopLeft     Corner = "top_left"
	CornerTopRight    Corner = "top_right"
)

// cornerPreference breaks score ties: earlier wins.
var cornerPreference = []Corner{CornerBottomLeft, CornerBottomRight, CornerTopLeft, CornerTopRight}

// ParseCorner validates a persisted corner name.
func ParseCorner(name string) (Corner, bool) {
	switch Corner(name) {
	case CornerBottomLeft, CornerBottomRight, CornerTopLeft, CornerTopRight:
		return Corner(name), true
	}
	return "", false
}

// CornerScorer estimates how busy one corner region of an image is. Higher
// scores mean busier. Implementations must be pure so the heuristic can be
// swapped or tuned without touching the layout policy.
type CornerScorer interface {
	Score(grid IntensityGrid, corner Corner, sizePct float64) float64
}

// BestCorner returns the least busy corner, ties broken by the fixed
// preference order. A nil grid falls back to the first preference.
func BestCorner(grid IntensityGrid, scorer CornerScorer, sizePct float64) Corner {
	if grid == nil || scorer == nil {
		return cornerPreference[0]
	}
	best := cornerPreference[0]
	bestScore := math.Inf(1)
	for _, corner := range cornerPreference {
		score := scorer.Score(grid, corner, sizePct)
		if score < bestScore {
			best = corner
			bestScore = score
		}
	}
	return best
}

// VarianceScorer scores busyness from luminance variance plus a gradient
// magnitude term, weighted toward edges. No learned model is involved.
type VarianceScorer struct{}

// edgeWeight multiplies the mean gradient magnitude before it is added to
// the variance term.
const edgeWeight = 3.0

func (VarianceScorer) Score(grid IntensityGrid, corner Corner, sizePct float64) float64 {
	width, height := grid.Bounds()
	if width == 0 || height == 0 {
		return 0
	}
	regionW := width * int(sizePct) / 100
	regionH := height * int(sizePct) / 100
	if regionW < 1 {
		regionW = 1
	}
	if regionH < 1 {
		regionH = 1
	}

	x0, y0 := 0, 0
	switch corner {
	case CornerTopRight:
		x0 = width - regionW
	case CornerBottomLeft:
		y0 = height - regionH
	case CornerBottomRight:
		x0 = width - regionW
		y0 = height - regionH
	}

	// Luminance variance.
	var sum, sumSq float64
	n := float64(regionW * regionH)
	for y := y0; y < y0+regionH; y++ {
		for x := x0; x < x0+regionW; x++ {
			v := grid.At(x, y)
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	// Mean gradient magnitude over interior samples.
	var edgeSum float64
	edgeCount := 0
	for y := y0; y < y0+regionH-1; y++ {
		for x := x0; x < x0+regionW-1; x++ {
			gx := grid.At(x+1, y) - grid.At(x, y)
			gy := grid.At(x, y+1) - grid.At(x, y)
			edgeSum += math.Sqrt(gx*gx + gy*gy)
			edgeCount++
		}
	}
	edge := 0.0
	if edgeCount > 0 {
		edge = edgeSum / float64(edgeCount)
	}

	score := variance + edgeWeight*edge
	if score > 1 {
		score = 1
	}
	return score
}
