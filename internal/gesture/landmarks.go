// Package gesture turns hand landmark frames into the smoothed control state
// that drives the particle animator.
package gesture

import (
	"github.com/Faultbox/handcloud/pkg/math"
)

// LandmarkCount is the number of landmarks per detected hand.
const LandmarkCount = 21

// Landmark indices used by the interpreter.
const (
	Wrist     = 0
	ThumbTip  = 4
	IndexTip  = 8
	MiddleMCP = 9 // palm centre
	MiddleTip = 12
	RingTip   = 16
	PinkyTip  = 20
)

// fingertips are the landmarks averaged for openness.
var fingertips = [...]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// Landmark is a normalized camera-space point; X and Y are in [0, 1].
type Landmark struct {
	X, Y, Z float32
}

// XY returns the landmark projected onto the image plane.
func (l Landmark) XY() math.Vec2 {
	return math.Vec2{X: l.X, Y: l.Y}
}

func (l Landmark) vec3() math.Vec3 {
	return math.Vec3{X: l.X, Y: l.Y, Z: l.Z}
}

// Hand is one detected hand.
type Hand [LandmarkCount]Landmark

// Pinch returns the image-plane distance between thumb and index tips and
// whether it is strictly below threshold.
func Pinch(h *Hand, threshold float32) (float32, bool) {
	d := h[ThumbTip].XY().Distance(h[IndexTip].XY())
	return d, d < threshold
}

// Openness is the mean wrist-to-fingertip distance rescaled from
// [closed, open] to [0, 1] and clamped.
func Openness(h *Hand, closed, open float32) float32 {
	wrist := h[Wrist].vec3()
	var sum float32
	for _, tip := range fingertips {
		sum += wrist.Distance(h[tip].vec3())
	}
	avg := sum / float32(len(fingertips))
	if open <= closed {
		if avg >= open {
			return 1
		}
		return 0
	}
	return math.Clamp((avg-closed)/(open-closed), 0, 1)
}

// Centroid is the mean image-plane position of all landmarks.
func Centroid(h *Hand) math.Vec2 {
	var c math.Vec2
	for i := range h {
		c = c.Add(h[i].XY())
	}
	return c.Scale(1 / float32(LandmarkCount))
}
