package pattern

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// black is the colour of an unlit pixel.
//
//nolint:gochecknoglobals // Immutable colour constant.
var black = colorful.Color{R: 0, G: 0, B: 0}

// Solid lights every pixel with the same colour.
func Solid(c colorful.Color) RenderFunc {
	return func(_ time.Duration, pixels int) Frame {
		return fill(pixels, c)
	}
}

// Off renders an unlit strip.
func Off() RenderFunc {
	return Solid(black)
}

// Pulse fades the whole strip between black and c once per period.
func Pulse(c colorful.Color, period time.Duration) RenderFunc {
	return func(elapsed time.Duration, pixels int) Frame {
		phase := phaseOf(elapsed, period)
		// Cosine starting at 0 so the first frame is dark and brightens smoothly.
		intensity := (1 - math.Cos(2*math.Pi*phase)) / 2

		return fill(pixels, black.BlendRgb(c, intensity).Clamped())
	}
}

// Blink alternates between c and b every half period.
func Blink(c, b colorful.Color, period time.Duration) RenderFunc {
	return func(elapsed time.Duration, pixels int) Frame {
		if phaseOf(elapsed, period) < 0.5 {
			return fill(pixels, c)
		}

		return fill(pixels, b)
	}
}

// Chase moves a lit segment of width pixels along the strip, one lap per period.
func Chase(c colorful.Color, width int, period time.Duration) RenderFunc {
	return func(elapsed time.Duration, pixels int) Frame {
		frame := fill(pixels, black)
		head := int(phaseOf(elapsed, period) * float64(pixels))

		for i := range width {
			idx := ((head-i)%pixels + pixels) % pixels
			// Tail fades linearly behind the head.
			frame[idx] = black.BlendRgb(c, 1-float64(i)/float64(width)).Clamped()
		}

		return frame
	}
}

// Rainbow spreads the hue wheel over the strip and rotates it once per period.
func Rainbow(period time.Duration) RenderFunc {
	return func(elapsed time.Duration, pixels int) Frame {
		frame := make(Frame, pixels)
		offset := phaseOf(elapsed, period) * 360

		for i := range frame {
			hue := math.Mod(offset+float64(i)*360/float64(pixels), 360)
			frame[i] = colorful.Hsv(hue, 1, 1)
		}

		return frame
	}
}

// fill returns a frame with every pixel set to c.
func fill(pixels int, c colorful.Color) Frame {
	frame := make(Frame, pixels)
	for i := range frame {
		frame[i] = c
	}

	return frame
}

// phaseOf returns the position in [0, 1) of elapsed within the period.
func phaseOf(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}

	return float64(elapsed%period) / float64(period)
}
