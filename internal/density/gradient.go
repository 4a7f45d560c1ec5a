package density

import (
	"fmt"
	"math"
)

// RGB is a color with each channel in [0,1]
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Hex formats the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

func channelByte(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// segment is one linear piece of the gradient, valid on [lo, hi)
type segment struct {
	lo, hi float64
	color  func(t float64) RGB
}

// gradient runs blue -> cyan -> green -> yellow -> red
var gradient = []segment{
	{0.00, 0.25, func(t float64) RGB { return RGB{R: 0, G: t / 0.25, B: 1} }},
	{0.25, 0.50, func(t float64) RGB { return RGB{R: 0, G: 1, B: 1 - (t-0.25)/0.25} }},
	{0.50, 0.75, func(t float64) RGB { return RGB{R: (t - 0.5) / 0.25, G: 1, B: 0} }},
	{0.75, 1.00, func(t float64) RGB { return RGB{R: 1, G: 1 - (t-0.75)/0.25, B: 0} }},
}

// ColorAt maps a normalized density to the heat gradient. t is clamped to [0,1];
// 0 is pure blue and 1 is pure red.
func ColorAt(t float64) RGB {
	t = clamp01(t)
	for _, s := range gradient[:len(gradient)-1] {
		if t < s.hi {
			return s.color(t)
		}
	}
	// last segment is closed at 1.0
	return gradient[len(gradient)-1].color(t)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
