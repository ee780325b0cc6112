// Package colormap maps scalar values to hex colors for map markers, and
// provides small color helpers (blending, luminance, rgba strings).
package colormap

import (
	"fmt"
	"math"
	"strconv"
)

// viridis anchor colors, evenly spaced over [0,1].
var viridis = [][3]uint8{
	{68, 1, 84},
	{70, 50, 126},
	{54, 92, 141},
	{39, 127, 142},
	{31, 161, 135},
	{74, 193, 109},
	{160, 218, 57},
	{253, 231, 37},
}

// ValueToHex maps x in [a,b] onto the viridis colormap and returns a
// "#rrggbb" string. Values outside the range are clipped; b == a maps to the
// low end of the scale.
func ValueToHex(x, a, b float64) string {
	var norm float64
	if b != a {
		norm = (x - a) / (b - a)
	}
	norm = clamp01(norm)

	pos := norm * float64(len(viridis)-1)
	i := int(math.Floor(pos))
	if i >= len(viridis)-1 {
		i = len(viridis) - 2
	}
	frac := pos - float64(i)

	lo, hi := viridis[i], viridis[i+1]
	r := lerp(lo[0], hi[0], frac)
	g := lerp(lo[1], hi[1], frac)
	bl := lerp(lo[2], hi[2], frac)
	return fmt.Sprintf("#%02x%02x%02x", r, g, bl)
}

// ValueToRGBA maps x in [a,b] to an "rgba(r,g,b,a)" CSS string where alpha
// ramps linearly from alphaMin at a to alphaMax at b.
func ValueToRGBA(x, a, b, alphaMin, alphaMax float64) string {
	var norm float64
	if b != a {
		norm = (x - a) / (b - a)
	}
	norm = clamp01(norm)
	alpha := clamp01(alphaMin + norm*(alphaMax-alphaMin))
	return HexToRGBA(ValueToHex(x, a, b), alpha)
}

// BlendHex blends overlay onto base with the given alpha (0..1), linearly
// interpolating each channel, and returns a 6-char hex string.
func BlendHex(base, overlay string, alpha float64) string {
	br, bg, bb := parseHex(base)
	or, og, ob := parseHex(overlay)
	a := clamp01(alpha)
	r := uint8(math.Round(float64(br)*(1-a) + float64(or)*a))
	g := uint8(math.Round(float64(bg)*(1-a) + float64(og)*a))
	bl := uint8(math.Round(float64(bb)*(1-a) + float64(ob)*a))
	return fmt.Sprintf("#%02x%02x%02x", r, g, bl)
}

// Luminance returns the relative luminance (0..1) of a hex color. An empty
// string returns 1.0 so callers pick high-contrast text conservatively.
func Luminance(hex string) float64 {
	if hex == "" {
		return 1.0
	}
	r, g, b := parseHex(hex)
	return 0.2126*float64(r)/255 + 0.7152*float64(g)/255 + 0.0722*float64(b)/255
}

// HexToRGBA converts a hex color to an "rgba(r,g,b,a)" CSS string.
func HexToRGBA(hex string, alpha float64) string {
	a := clamp01(alpha)
	if hex == "" {
		return fmt.Sprintf("rgba(0,0,0,%g)", a)
	}
	r, g, b := parseHex(hex)
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", r, g, b, a)
}

// parseHex accepts "#rgb" and "#rrggbb" forms; malformed input reads as black.
func parseHex(hex string) (uint8, uint8, uint8) {
	h := hex
	if len(h) > 0 && h[0] == '#' {
		h = h[1:]
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
