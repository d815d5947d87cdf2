package gesture

import "github.com/Faultbox/handcloud/pkg/math"

// Synthesize builds a hand that the interpreter, configured with opts, reads
// back as the given position, openness and pinch. The mouse uses it to stand
// in for a camera.
func Synthesize(pos math.Vec2, openness float32, pinching bool, opts Options) Hand {
	reach := math.Lerp(opts.OpenMin, opts.OpenMax, math.Clamp(openness, 0, 1))

	var h Hand
	for i := range h {
		h[i] = Landmark{X: pos.X, Y: pos.Y}
	}
	h[Wrist] = Landmark{X: pos.X, Y: pos.Y + reach/2}
	for _, tip := range fingertips {
		h[tip] = Landmark{X: pos.X, Y: pos.Y - reach/2}
	}

	if !pinching {
		h[ThumbTip] = Landmark{X: pos.X - 2*opts.PinchThreshold, Y: pos.Y - reach/2}
		return h
	}

	// A pinch reports the tip midpoint, so shift the hand until it lands on pos.
	h[ThumbTip] = h[IndexTip]
	off := pos.Sub(h[IndexTip].XY())
	for i := range h {
		h[i].X += off.X
		h[i].Y += off.Y
	}
	return h
}
