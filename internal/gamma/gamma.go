// Package gamma converts color temperatures to display gamma multipliers.
//
// The Kelvin to RGB conversion uses Tanner Helland's piecewise
// approximation of black-body radiation, which is accurate enough for
// display-warmth adjustment across the 1000K-10000K range.
package gamma

import "math"

// Color temperature presets in Kelvin.
const (
	TemperatureDaylight = 6500 // neutral/default
	TemperatureSunset   = 4500
	TemperatureNight    = 3400
	TemperatureCandle   = 2700
)

// RGB holds per-channel multipliers in [0.0, 1.0].
type RGB struct {
	R float64
	G float64
	B float64
}

// Ramp is a per-channel lookup table consumed by ramp-based display
// backends. Index 0 is red, 1 green, 2 blue.
type Ramp [3][]uint16

// KelvinToRGB converts a color temperature to RGB multipliers.
// The branch conditions guard the log calls against non-positive
// arguments, so the function is total over all integer inputs.
func KelvinToRGB(kelvin int) RGB {
	temp := float64(kelvin) / 100.0

	var r, g, b float64

	// Red
	if temp <= 66 {
		r = 1.0
	} else {
		r = 329.698727446 * math.Pow(temp-60, -0.1332047592)
		r = clamp255(r) / 255.0
	}

	// Green
	if temp <= 66 {
		if temp > 1 {
			g = 99.4708025861*math.Log(temp) - 161.1195681661
		}
	} else {
		g = 288.1221695283 * math.Pow(temp-60, -0.0755148492)
	}
	g = clamp255(g) / 255.0

	// Blue
	switch {
	case temp >= 66:
		b = 1.0
	case temp <= 19:
		b = 0.0
	default:
		b = 138.5177312231*math.Log(temp-10) - 305.0447927307
		b = clamp255(b) / 255.0
	}

	return RGB{R: r, G: g, B: b}
}

// BuildRamp expands RGB multipliers into a gamma ramp of the given size.
// Each channel value is the linear identity ramp scaled by the channel
// multiplier, clamped to the 16-bit range the backend expects.
func BuildRamp(rgb RGB, size int) Ramp {
	var ramp Ramp
	mults := [3]float64{rgb.R, rgb.G, rgb.B}
	step := 65536.0 / float64(size)

	for c := range ramp {
		ramp[c] = make([]uint16, size)
		for i := 0; i < size; i++ {
			v := math.Round(float64(i) * step * mults[c])
			if v < 0 {
				v = 0
			} else if v > 65535 {
				v = 65535
			}
			ramp[c][i] = uint16(v)
		}
	}

	return ramp
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
