package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Grid is a downscaled luminance grid in [0,1], row-major. It satisfies the
// overlay package's intensity-grid contract.
type Grid struct {
	W, H int
	Pix  []float64
}

// Bounds returns the grid dimensions.
func (g *Grid) Bounds() (int, int) { return g.W, g.H }

// At returns the luminance at (x, y). Out-of-range coordinates return 0.
func (g *Grid) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}
	return g.Pix[y*g.W+x]
}

// Dims carries the original image's pixel dimensions.
type Dims struct {
	Width  int
	Height int
}

const (
	analysisWidth      = 256
	analysisWidthLarge = 128
	largeImageEdge     = 2048
)

// Decode reads the image at path and returns its dimensions plus a
// downscaled luminance grid for saliency analysis. Large images are scaled
// more aggressively; the original pixels are never modified.
func Decode(path string) (*Grid, Dims, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Dims{}, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, Dims{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	dims := Dims{Width: bounds.Dx(), Height: bounds.Dy()}
	if dims.Width == 0 || dims.Height == 0 {
		return nil, Dims{}, fmt.Errorf("image has empty bounds")
	}

	target := analysisWidth
	if dims.Width > largeImageEdge || dims.Height > largeImageEdge {
		target = analysisWidthLarge
	}
	if dims.Width < target {
		target = dims.Width
	}

	gridW := target
	gridH := dims.Height * target / dims.Width
	if gridH < 1 {
		gridH = 1
	}

	grid := &Grid{W: gridW, H: gridH, Pix: make([]float64, gridW*gridH)}
	for gy := 0; gy < gridH; gy++ {
		sy := bounds.Min.Y + gy*dims.Height/gridH
		for gx := 0; gx < gridW; gx++ {
			sx := bounds.Min.X + gx*dims.Width/gridW
			r, g, b, _ := img.At(sx, sy).RGBA()
			// Rec.601 luma over 16-bit channel values.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			grid.Pix[gy*gridW+gx] = luma
		}
	}
	return grid, dims, nil
}
