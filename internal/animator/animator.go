package animator

import (
	gomath "math"
	"math/rand/v2"

	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/pkg/math"
)

// Group is the transform applied to the whole cloud. It persists across
// frames and is never reset when the hand is lost.
type Group struct {
	Position math.Vec3
	Rotation math.Vec3 // X = pitch, Y = yaw, radians
	Scale    float32   // factor applied to target points this frame
}

// Matrix returns translate * rotateY * rotateX.
func (g Group) Matrix() math.Mat4 {
	return math.Translate(g.Position.X, g.Position.Y, g.Position.Z).
		Mul(math.RotateY(g.Rotation.Y)).
		Mul(math.RotateX(g.Rotation.X))
}

// Material is the instanced mesh color pair.
type Material struct {
	Color    color.RGB
	Emissive color.RGB
}

// MaterialFor pairs c with its emissive glow.
func MaterialFor(c color.RGB) Material {
	return Material{Color: c, Emissive: c.Emissive()}
}

// Instance is one particle as handed to a renderer, in group-local space.
type Instance struct {
	Position math.Vec3
	Scale    float32
}

// Frame is everything a renderer needs for one frame.
type Frame struct {
	Instances []Instance // pool order; reused by the next Tick
	Group     Group
	Material  Material
	Exploding bool
}

// WorldPositions appends each instance transformed by the group matrix.
func (f Frame) WorldPositions(dst []math.Vec3) []math.Vec3 {
	m := f.Group.Matrix()
	for _, in := range f.Instances {
		dst = append(dst, m.TransformVec3(in.Position))
	}
	return dst
}

// Matrices appends the per-instance model matrices in group-local space,
// ready for an instanced draw.
func (f Frame) Matrices(dst []math.Mat4) []math.Mat4 {
	for _, in := range f.Instances {
		dst = append(dst, math.TranslateScale(in.Position, in.Scale))
	}
	return dst
}

// Input is the per-frame data the animator consumes.
type Input struct {
	Gesture   gesture.State
	Target    []math.Vec3
	Exploding bool
	Viewport  math.Vec2 // visible world width and height at the cloud's depth
	Material  Material
	Flash     Material
	Elapsed   float32 // seconds since the previous tick
}

// Animator owns the particle pool. Only Tick mutates it; it is not safe for
// concurrent use.
type Animator struct {
	params    Params
	rng       *rand.Rand
	positions []math.Vec3
	instances []Instance
	group     Group

	prev    math.Vec2
	hasPrev bool
	clock   float32
}

// New allocates a pool of p.Count particles scattered in a cube of edge
// p.InitialSpread. rng drives the scatter and the breathing jitter.
func New(p Params, rng *rand.Rand) *Animator {
	if p.Count <= 0 {
		p.Count = DefaultParams().Count
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	a := &Animator{
		params:    p,
		rng:       rng,
		positions: make([]math.Vec3, p.Count),
		instances: make([]Instance, p.Count),
		group:     Group{Scale: p.IdleScale},
	}
	a.Reset()
	return a
}

// Reset scatters the pool again. The group transform is kept.
func (a *Animator) Reset() {
	half := float64(a.params.InitialSpread) / 2
	for i := range a.positions {
		a.positions[i] = math.Vec3{
			X: float32((a.rng.Float64()*2 - 1) * half),
			Y: float32((a.rng.Float64()*2 - 1) * half),
			Z: float32((a.rng.Float64()*2 - 1) * half),
		}
	}
}

// Len returns the pool size.
func (a *Animator) Len() int {
	return len(a.positions)
}

// Positions returns the pool state. The slice is owned by the animator.
func (a *Animator) Positions() []math.Vec3 {
	return a.positions
}

// Group returns the current group transform.
func (a *Animator) Group() Group {
	return a.group
}

// Params returns the tunables in use.
func (a *Animator) Params() Params {
	return a.params
}

// Tick advances the pool by one frame.
func (a *Animator) Tick(in Input) Frame {
	a.clock += in.Elapsed

	frame := Frame{Exploding: in.Exploding}
	if in.Exploding {
		a.explode()
		frame.Material = in.Flash
	} else {
		a.steady(in)
		frame.Material = in.Material
	}

	// Palm-sweep deltas only span frames where the hand stayed tracked.
	if in.Gesture.Detected {
		a.prev = in.Gesture.Position
		a.hasPrev = true
	} else {
		a.hasPrev = false
	}

	frame.Group = a.group
	frame.Instances = a.instances
	return frame
}

// explode pushes every particle outward. The growth factor varies with
// index mod 10 so the burst separates into shells.
func (a *Animator) explode() {
	p := a.params
	for i := range a.positions {
		if a.positions[i].Length() < explodeSeed {
			a.positions[i] = seedDirection(i).Scale(explodeSeed)
		}
		f := p.ExplodeFactor * (1 + p.ExplodeLayer*float32(i%10))
		a.positions[i] = a.positions[i].Scale(f)
		a.instances[i] = Instance{Position: a.positions[i], Scale: p.ExplodeParticleScale}
	}
	a.group.Rotation.Y += p.ExplodeSpinY
	a.group.Rotation.X += p.ExplodeSpinX
}

// explodeSeed is the radius a particle resting on the origin is moved to
// before an explosion scales it.
const explodeSeed = 1e-3

// seedDirection spreads particles over the unit sphere by index along a
// golden-angle spiral.
func seedDirection(i int) math.Vec3 {
	const golden = 2.399963229728653
	z := 1 - 2*(float64(i%64)+0.5)/64
	r := gomath.Sqrt(1 - z*z)
	theta := golden * float64(i)
	return math.Vec3{
		X: float32(r * gomath.Cos(theta)),
		Y: float32(r * gomath.Sin(theta)),
		Z: float32(z),
	}
}

func (a *Animator) steady(in Input) {
	p := a.params
	g := in.Gesture

	// Move: pinch drags the group; the camera feed is mirrored horizontally.
	if g.Detected && g.Pinching {
		target := math.Vec3{
			X: -(g.Position.X - 0.5) * in.Viewport.X,
			Y: -(g.Position.Y - 0.5) * in.Viewport.Y,
			Z: a.group.Position.Z,
		}
		a.group.Position = a.group.Position.Lerp(target, p.MoveLerp)
	}

	// Rotate: a flat palm sweeps the cloud, otherwise it spins slowly.
	if g.Detected && !g.Pinching && g.Openness > p.RotateOpenness {
		if a.hasPrev {
			d := g.Position.Sub(a.prev)
			a.group.Rotation.Y += d.X * p.RotateSensitivity
			a.group.Rotation.X += d.Y * p.RotateSensitivity
		}
	} else {
		a.group.Rotation.Y += p.IdleSpin
	}

	scale := a.scaleFactor(g)
	a.group.Scale = scale

	// Blend every particle toward its target slot.
	n := len(in.Target)
	for i := range a.positions {
		var t math.Vec3
		if n > 0 {
			t = in.Target[i%n].Scale(scale)
		}
		a.positions[i] = a.positions[i].Lerp(t, p.BlendLerp)
	}

	// Secondary motion is a render offset so the pool itself converges cleanly.
	size := p.ParticleBaseScale * (0.5 + a.effectiveOpenness(g))
	for i, pos := range a.positions {
		a.instances[i] = Instance{Position: pos.Add(a.secondary(g, i)), Scale: size}
	}
}

// scaleFactor multiplies the target cloud: large while idle, locked while
// pinching, and following palm openness otherwise.
func (a *Animator) scaleFactor(g gesture.State) float32 {
	p := a.params
	switch {
	case !g.Detected:
		return p.IdleScale
	case g.Pinching:
		return p.PinchScale
	default:
		return p.MinScale + g.Openness*p.ScaleRange
	}
}

func (a *Animator) effectiveOpenness(g gesture.State) float32 {
	switch {
	case !g.Detected:
		return 1
	case g.Pinching:
		return a.params.PinchOpenness
	default:
		return g.Openness
	}
}

// secondary returns the per-particle offset for the current gesture: none
// while pinching or open-handed, jitter for a compressed fist, and a slow
// desynchronised drift while idle.
func (a *Animator) secondary(g gesture.State, i int) math.Vec3 {
	p := a.params
	switch {
	case g.Detected && g.Pinching:
		return math.Vec3{}
	case g.Detected && g.Openness < p.CompressedOpenness:
		j := float64(p.BreathJitter)
		return math.Vec3{
			X: float32((a.rng.Float64()*2 - 1) * j),
			Y: float32((a.rng.Float64()*2 - 1) * j),
			Z: float32((a.rng.Float64()*2 - 1) * j),
		}
	case !g.Detected:
		t := float64(a.clock)
		phase := float64(i)
		amp := float64(p.DriftAmplitude)
		return math.Vec3{
			X: float32(gomath.Sin(t*0.7+phase*0.11) * amp),
			Y: float32(gomath.Cos(t*0.9+phase*0.17) * amp),
			Z: float32(gomath.Sin(t*1.3+phase*0.23) * amp),
		}
	default:
		return math.Vec3{}
	}
}
