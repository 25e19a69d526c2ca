package overlay

import "math"

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// chipPalette is a fixed colorblind-safe palette (Okabe-Ito). Chips cycle
// through it in order.
var chipPalette = []RGB{
	{0, 114, 178},   // blue
	{230, 159, 0},   // orange
	{0, 158, 115},   // bluish green
	{204, 121, 167}, // reddish purple
	{86, 180, 233},  // sky blue
	{213, 94, 0},    // vermillion
	{240, 228, 66},  // yellow
}

var (
	textLight = RGB{255, 255, 255}
	textDark  = RGB{20, 20, 20}
)

// ChipBackground returns the palette color for the i-th chip.
func ChipBackground(i int) RGB {
	if i < 0 {
		i = 0
	}
	return chipPalette[i%len(chipPalette)]
}

// RelativeLuminance computes WCAG relative luminance of a color.
func RelativeLuminance(c RGB) float64 {
	linear := func(channel uint8) float64 {
		v := float64(channel) / 255
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(c.R) + 0.7152*linear(c.G) + 0.0722*linear(c.B)
}

// ContrastRatio computes the WCAG contrast ratio between two colors.
func ContrastRatio(a, b RGB) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// TextColor picks light or dark chip text, whichever maximizes contrast with
// the background. A pure function of the background color, never a stored
// preference.
func TextColor(background RGB) RGB {
	if ContrastRatio(background, textLight) >= ContrastRatio(background, textDark) {
		return textLight
	}
	return textDark
}
