// Package camera provides the fixed perspective camera that frames the cloud.
package camera

import (
	gomath "math"

	"github.com/Faultbox/handcloud/pkg/math"
)

const (
	nearPlane = 0.1
	farPlane  = 100
)

// Camera looks down -Z at the origin from a fixed distance.
type Camera struct {
	FOV      float32 // vertical field of view, degrees
	Distance float32 // eye distance from the origin along +Z
	Aspect   float32 // width / height
}

// New creates a camera for a viewport of width x height pixels.
func New(fovDegrees, distance float32, width, height int) *Camera {
	c := &Camera{
		FOV:      fovDegrees,
		Distance: distance,
		Aspect:   1,
	}
	c.Resize(width, height)
	return c
}

// Resize updates the aspect ratio. Degenerate sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// Position returns the camera position in world space.
func (c *Camera) Position() math.Vec3 {
	return math.Vec3{Z: c.Distance}
}

// ViewMatrix returns the view matrix for this camera.
func (c *Camera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), math.Vec3{}, up)
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.fovRadians(), c.Aspect, nearPlane, farPlane)
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// ViewportAt returns the world-space width and height visible on the plane
// z = depth. Planes at or behind the eye have no extent.
func (c *Camera) ViewportAt(depth float32) math.Vec2 {
	d := c.Distance - depth
	if d <= 0 {
		return math.Vec2{}
	}
	h := 2 * d * float32(gomath.Tan(float64(c.fovRadians())/2))
	return math.Vec2{X: h * c.Aspect, Y: h}
}

// Project maps a world point to normalized screen coordinates, with (0,0)
// at the top-left and (1,1) at the bottom-right. ok is false for points
// behind the eye or outside the view volume.
func (c *Camera) Project(p math.Vec3) (screen math.Vec2, depth float32, ok bool) {
	if p.Z >= c.Distance-nearPlane {
		return math.Vec2{}, 0, false
	}
	ndc := c.ViewProjection().TransformVec3(p)
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 {
		return math.Vec2{}, ndc.Z, false
	}
	return math.Vec2{X: (ndc.X + 1) / 2, Y: (1 - ndc.Y) / 2}, ndc.Z, true
}

func (c *Camera) fovRadians() float32 {
	return c.FOV * gomath.Pi / 180
}
