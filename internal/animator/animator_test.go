package animator

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/pkg/math"
	"github.com/Faultbox/handcloud/pkg/shape"
)

func newTestAnimator(t *testing.T, count int) *Animator {
	t.Helper()
	p := DefaultParams()
	p.Count = count
	return New(p, rand.New(rand.NewPCG(42, 42)))
}

func testInput(g gesture.State, target []math.Vec3) Input {
	return Input{
		Gesture:  g,
		Target:   target,
		Viewport: math.Vec2{X: 8, Y: 6},
		Material: MaterialFor(color.Cyan),
		Flash:    MaterialFor(color.Flash),
		Elapsed:  1.0 / 60,
	}
}

func detected(x, y, openness float32, pinching bool) gesture.State {
	return gesture.State{
		Detected: true,
		Position: math.Vec2{X: x, Y: y},
		Pinching: pinching,
		Openness: openness,
	}
}

func TestNewPool(t *testing.T) {
	a := newTestAnimator(t, 300)
	require.Equal(t, 300, a.Len())

	half := DefaultParams().InitialSpread / 2
	for _, p := range a.Positions() {
		assert.LessOrEqual(t, abs(p.X), half)
		assert.LessOrEqual(t, abs(p.Y), half)
		assert.LessOrEqual(t, abs(p.Z), half)
	}

	defaulted := New(Params{}, nil)
	assert.Equal(t, DefaultParams().Count, defaulted.Len())
}

func TestIdleConvergesWithoutOvershoot(t *testing.T) {
	a := newTestAnimator(t, 200)
	target := shape.Generate(shape.Heart, 64, rand.New(rand.NewPCG(1, 1)))
	scale := DefaultParams().IdleScale

	goal := func(i int) math.Vec3 { return target[i%len(target)].Scale(scale) }

	prevDist := make([]float32, a.Len())
	startSign := make([][3]bool, a.Len())
	for i, p := range a.Positions() {
		prevDist[i] = p.Distance(goal(i))
		d := goal(i).Sub(p)
		startSign[i] = [3]bool{d.X >= 0, d.Y >= 0, d.Z >= 0}
	}

	for tick := 0; tick < 200; tick++ {
		frame := a.Tick(testInput(gesture.Idle(), target))
		require.Len(t, frame.Instances, a.Len(), "one instance per particle every frame")

		for i, p := range a.Positions() {
			dist := p.Distance(goal(i))
			require.LessOrEqual(t, dist, prevDist[i]+1e-6, "particle %d moved away on tick %d", i, tick)
			prevDist[i] = dist

			d := goal(i).Sub(p)
			s := startSign[i]
			// Never crosses the target on any axis.
			require.True(t, d.X == 0 || (d.X > 0) == s[0] || abs(d.X) < 1e-6, "overshoot x")
			require.True(t, d.Y == 0 || (d.Y > 0) == s[1] || abs(d.Y) < 1e-6, "overshoot y")
			require.True(t, d.Z == 0 || (d.Z > 0) == s[2] || abs(d.Z) < 1e-6, "overshoot z")
		}
	}

	for i := range a.Positions() {
		assert.Less(t, prevDist[i], float32(1e-4), "particle %d converged", i)
	}
}

func TestEmptyTargetUsesOrigin(t *testing.T) {
	a := newTestAnimator(t, 50)
	for i := 0; i < 300; i++ {
		a.Tick(testInput(gesture.Idle(), nil))
	}
	for _, p := range a.Positions() {
		assert.Less(t, p.Length(), float32(1e-4))
	}
}

func TestShortCloudWraps(t *testing.T) {
	a := newTestAnimator(t, 10)
	target := []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
	for i := 0; i < 400; i++ {
		a.Tick(testInput(gesture.Idle(), target))
	}
	for i, p := range a.Positions() {
		want := target[i%3].Scale(DefaultParams().IdleScale)
		assert.InDelta(t, 0, p.Distance(want), 1e-4, "particle %d", i)
	}
}

func TestGroupHoldsPositionWhenHandLost(t *testing.T) {
	a := newTestAnimator(t, 20)
	target := shape.Generate(shape.Sphere, 20, nil)

	for i := 0; i < 30; i++ {
		a.Tick(testInput(detected(0.2, 0.3, 0.5, true), target))
	}
	before := a.Group().Position
	require.NotEqual(t, math.Vec3{}, before)

	for i := 0; i < 100; i++ {
		a.Tick(testInput(gesture.Idle(), target))
	}
	assert.Equal(t, before, a.Group().Position)
}

func TestPinchMovesTowardMirroredTarget(t *testing.T) {
	a := newTestAnimator(t, 5)
	in := testInput(detected(0.25, 0.75, 0.3, true), nil)

	a.Tick(in)
	// target = -(0.25-0.5)*8, -(0.75-0.5)*6 = (2, -1.5); one lerp step of 0.15
	got := a.Group().Position
	assert.InDelta(t, 0.3, got.X, 1e-5)
	assert.InDelta(t, -0.225, got.Y, 1e-5)
	assert.Zero(t, got.Z)

	for i := 0; i < 200; i++ {
		a.Tick(in)
	}
	got = a.Group().Position
	assert.InDelta(t, 2, got.X, 1e-3)
	assert.InDelta(t, -1.5, got.Y, 1e-3)
}

func TestOpenHandWithoutPinchHoldsPosition(t *testing.T) {
	a := newTestAnimator(t, 5)
	a.Tick(testInput(detected(0.1, 0.1, 0.3, true), nil))
	before := a.Group().Position

	a.Tick(testInput(detected(0.9, 0.9, 0.3, false), nil))
	assert.Equal(t, before, a.Group().Position)
}

func TestPalmSweepRotates(t *testing.T) {
	a := newTestAnimator(t, 5)

	a.Tick(testInput(detected(0.40, 0.50, 0.9, false), nil))
	first := a.Group().Rotation
	assert.Equal(t, math.Vec3{}, first, "no previous frame, no delta")

	a.Tick(testInput(detected(0.50, 0.45, 0.9, false), nil))
	got := a.Group().Rotation
	assert.InDelta(t, 0.1*5.0, got.Y, 1e-5)
	assert.InDelta(t, -0.05*5.0, got.X, 1e-5)
}

func TestPalmSweepNeedsContinuousTracking(t *testing.T) {
	a := newTestAnimator(t, 5)
	a.Tick(testInput(detected(0.40, 0.50, 0.9, false), nil))
	a.Tick(testInput(gesture.Idle(), nil))
	spun := a.Group().Rotation

	a.Tick(testInput(detected(0.90, 0.90, 0.9, false), nil))
	assert.Equal(t, spun, a.Group().Rotation, "delta across a loss is discarded")
}

func TestIdleSpin(t *testing.T) {
	a := newTestAnimator(t, 5)
	for i := 0; i < 10; i++ {
		a.Tick(testInput(gesture.Idle(), nil))
	}
	assert.InDelta(t, 0.01, a.Group().Rotation.Y, 1e-6)
	assert.Zero(t, a.Group().Rotation.X)

	// A half-open hand is below the sweep threshold and spins too.
	a.Tick(testInput(detected(0.9, 0.9, 0.5, false), nil))
	assert.InDelta(t, 0.011, a.Group().Rotation.Y, 1e-6)
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		name string
		g    gesture.State
		want float32
	}{
		{"idle", gesture.Idle(), 1.5},
		{"pinching", detected(0.5, 0.5, 0.9, true), 1.0},
		{"fist", detected(0.5, 0.5, 0, false), 0.2},
		{"open palm", detected(0.5, 0.5, 1, false), 1.5},
		{"half", detected(0.5, 0.5, 0.5, false), 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnimator(t, 5)
			frame := a.Tick(testInput(tt.g, nil))
			assert.InDelta(t, tt.want, frame.Group.Scale, 1e-6)
		})
	}
}

func TestParticleRenderScale(t *testing.T) {
	tests := []struct {
		name string
		g    gesture.State
		want float32
	}{
		{"idle", gesture.Idle(), 0.03},
		{"pinching", detected(0.5, 0.5, 0.1, true), 0.022},
		{"fist", detected(0.5, 0.5, 0, false), 0.01},
		{"open", detected(0.5, 0.5, 1, false), 0.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnimator(t, 5)
			frame := a.Tick(testInput(tt.g, nil))
			for _, in := range frame.Instances {
				assert.InDelta(t, tt.want, in.Scale, 1e-6)
			}
		})
	}
}

func TestSecondaryMotion(t *testing.T) {
	target := []math.Vec3{{X: 0.5}}

	t.Run("pinching is still", func(t *testing.T) {
		a := newTestAnimator(t, 20)
		frame := a.Tick(testInput(detected(0.5, 0.5, 0.5, true), target))
		for i, in := range frame.Instances {
			assert.Equal(t, a.Positions()[i], in.Position)
		}
	})

	t.Run("fist jitters within bounds", func(t *testing.T) {
		a := newTestAnimator(t, 50)
		frame := a.Tick(testInput(detected(0.5, 0.5, 0.1, false), target))
		moved := 0
		for i, in := range frame.Instances {
			d := in.Position.Sub(a.Positions()[i])
			assert.LessOrEqual(t, abs(d.X), float32(0.025)+1e-6)
			assert.LessOrEqual(t, abs(d.Y), float32(0.025)+1e-6)
			assert.LessOrEqual(t, abs(d.Z), float32(0.025)+1e-6)
			if d != (math.Vec3{}) {
				moved++
			}
		}
		assert.Greater(t, moved, 0)
	})

	t.Run("jitter is reproducible with a seeded source", func(t *testing.T) {
		a := newTestAnimator(t, 10)
		b := newTestAnimator(t, 10)
		in := testInput(detected(0.5, 0.5, 0.1, false), target)
		fa := a.Tick(in)
		fb := b.Tick(in)
		assert.Equal(t, fa.Instances, fb.Instances)
	})

	t.Run("idle drifts per particle", func(t *testing.T) {
		a := newTestAnimator(t, 3)
		frame := a.Tick(testInput(gesture.Idle(), target))
		d0 := frame.Instances[0].Position.Sub(a.Positions()[0])
		d1 := frame.Instances[1].Position.Sub(a.Positions()[1])
		assert.NotEqual(t, d0, d1, "drift is desynchronised by index")
		assert.LessOrEqual(t, d0.Length(), DefaultParams().DriftAmplitude*2)
	})

	t.Run("open hand is still", func(t *testing.T) {
		a := newTestAnimator(t, 5)
		frame := a.Tick(testInput(detected(0.5, 0.5, 0.5, false), target))
		for i, in := range frame.Instances {
			assert.Equal(t, a.Positions()[i], in.Position)
		}
	})
}

func TestExplosionExpandsInLayers(t *testing.T) {
	a := newTestAnimator(t, 20)
	a.Tick(testInput(gesture.Idle(), shape.Generate(shape.Sphere, 20, nil)))

	// Put particles 0 and 9 at the same radius so the layering shows.
	a.positions[0] = math.Vec3{X: 1}
	a.positions[9] = math.Vec3{Y: 1}
	// Particles left on the origin by an empty target must still fly out.
	a.positions[5] = math.Vec3{}
	a.positions[15] = math.Vec3{}

	prev := make([]float32, a.Len())
	for i, p := range a.Positions() {
		prev[i] = p.Length()
	}

	in := testInput(gesture.Idle(), nil)
	in.Exploding = true
	var lastGap float32
	for tick := 0; tick < 30; tick++ {
		rotBefore := a.Group().Rotation
		frame := a.Tick(in)

		require.True(t, frame.Exploding)
		assert.Equal(t, MaterialFor(color.Flash), frame.Material)
		assert.InDelta(t, rotBefore.Y+0.2, a.Group().Rotation.Y, 1e-5)
		assert.InDelta(t, rotBefore.X+0.1, a.Group().Rotation.X, 1e-5)

		for i, p := range a.Positions() {
			r := p.Length()
			require.Greater(t, r, prev[i], "particle %d must move outward on tick %d", i, tick)
			prev[i] = r
			assert.Equal(t, float32(0.04), frame.Instances[i].Scale)
		}

		gap := prev[9] - prev[0]
		require.Greater(t, gap, lastGap, "layers diverge over time")
		lastGap = gap
	}
}

func TestSeedDirectionIsUnit(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.InDelta(t, 1, seedDirection(i).Length(), 1e-5, "index %d", i)
	}
	assert.NotEqual(t, seedDirection(5), seedDirection(15))
}

func TestExplosionIsDeterministic(t *testing.T) {
	a := newTestAnimator(t, 30)
	b := newTestAnimator(t, 30)
	in := testInput(gesture.Idle(), nil)
	in.Exploding = true
	for i := 0; i < 5; i++ {
		a.Tick(in)
		b.Tick(in)
	}
	assert.Equal(t, a.Positions(), b.Positions())
}

func TestWorldPositionsApplyGroup(t *testing.T) {
	f := Frame{
		Instances: []Instance{{Position: math.Vec3{X: 1}, Scale: 1}},
		Group:     Group{Position: math.Vec3{X: 2, Y: 3}},
	}
	got := f.WorldPositions(nil)
	require.Len(t, got, 1)
	assert.Equal(t, math.Vec3{X: 3, Y: 3}, got[0])
}

func TestMatricesPerInstance(t *testing.T) {
	f := Frame{Instances: []Instance{
		{Position: math.Vec3{X: 1, Y: 2, Z: 3}, Scale: 0.5},
		{Position: math.Vec3{}, Scale: 2},
	}}
	got := f.Matrices(make([]math.Mat4, 0, 2))
	require.Len(t, got, 2)

	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, got[0].TransformVec3(math.Vec3{}))
	assert.Equal(t, math.Vec3{X: 1.5, Y: 2, Z: 3}, got[0].TransformVec3(math.Vec3{X: 1}))
	assert.Equal(t, math.Vec3{Y: 2}, got[1].TransformVec3(math.Vec3{Y: 1}))
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
