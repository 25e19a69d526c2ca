package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, w, h int, fill func(x, y int) color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeDims(t *testing.T) {
	path := writePNG(t, 64, 32, func(int, int) color.Color { return color.White })

	grid, dims, err := Decode(path)
	if err != nil {
		t.Fatal(err)
	}
	if dims.Width != 64 || dims.Height != 32 {
		t.Fatalf("dims = %+v", dims)
	}
	w, h := grid.Bounds()
	if w != 64 || h != 32 {
		t.Fatalf("small image should not be upscaled: %dx%d", w, h)
	}
	if grid.At(0, 0) < 0.99 {
		t.Fatalf("white pixel luma = %v", grid.At(0, 0))
	}
}

func TestDecodeLumaGradient(t *testing.T) {
	path := writePNG(t, 32, 32, func(x, _ int) color.Color {
		if x < 16 {
			return color.Black
		}
		return color.White
	})

	grid, _, err := Decode(path)
	if err != nil {
		t.Fatal(err)
	}
	if grid.At(0, 0) > 0.05 {
		t.Fatalf("black half luma = %v", grid.At(0, 0))
	}
	if grid.At(31, 0) < 0.95 {
		t.Fatalf("white half luma = %v", grid.At(31, 0))
	}
}

func TestGridAtOutOfRange(t *testing.T) {
	grid := &Grid{W: 2, H: 2, Pix: []float64{1, 1, 1, 1}}
	if grid.At(-1, 0) != 0 || grid.At(0, 5) != 0 {
		t.Fatal("out-of-range access must return 0")
	}
}
