package inventory

import "math"

// PixelsPerInch is the screen resolution positions are reported in.
// Visio stores geometry in inches; 1 inch = 96 pixels at 96 DPI.
const PixelsPerInch = 96

// InchesToPixels converts inches to pixels at 96 DPI, rounding to the nearest
// pixel.
func InchesToPixels(in float64) int {
	return int(math.Round(in * PixelsPerInch))
}
