// Package shape generates the target point clouds the particle pool morphs
// toward. Generators are stateless; every call draws fresh random samples.
package shape

import (
	gomath "math"
	"math/rand/v2"
	"strings"

	"github.com/Faultbox/handcloud/pkg/math"
)

// ID names a shape family.
type ID string

// Known shape families.
const (
	Sphere    ID = "sphere"
	Cube      ID = "cube"
	Heart     ID = "heart"
	Flower    ID = "flower"
	Planet    ID = "planet"
	Fireworks ID = "fireworks"
)

// order is the cycle used when a clap advances to the next shape.
var order = []ID{Heart, Flower, Planet, Fireworks, Sphere, Cube}

// IDs returns the known shapes in cycle order.
func IDs() []ID {
	out := make([]ID, len(order))
	copy(out, order)
	return out
}

// Parse maps a name to an ID, case-insensitively. Unknown names are returned
// as-is; Generate treats them as Sphere.
func Parse(name string) ID {
	return ID(strings.ToLower(strings.TrimSpace(name)))
}

// Known reports whether id has its own generator.
func (id ID) Known() bool {
	_, ok := generators[id]
	return ok
}

// Next returns the shape after id in cycle order. Unknown ids start the cycle.
func (id ID) Next() ID {
	for i, o := range order {
		if o == id {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

type generator func(count int, rng *rand.Rand) []math.Vec3

var generators = map[ID]generator{
	Sphere:    sphere,
	Cube:      cube,
	Heart:     heart,
	Flower:    flower,
	Planet:    planet,
	Fireworks: fireworks,
}

var defaultRNG = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

// Generate returns count points for the shape. Unknown ids fall back to the
// sphere generator. A nil rng uses a package-level source, which is not safe
// for concurrent use.
func Generate(id ID, count int, rng *rand.Rand) []math.Vec3 {
	if count <= 0 {
		return []math.Vec3{}
	}
	if rng == nil {
		rng = defaultRNG
	}
	gen, ok := generators[id]
	if !ok {
		gen = sphere
	}
	return gen(count, rng)
}

// sphere samples the unit sphere surface with inverse-CDF polar angles.
func sphere(count int, rng *rand.Rand) []math.Vec3 {
	pts := make([]math.Vec3, count)
	for i := range pts {
		pts[i] = onSphere(rng, 1)
	}
	return pts
}

func cube(count int, rng *rand.Rand) []math.Vec3 {
	const half = 0.8
	pts := make([]math.Vec3, count)
	for i := range pts {
		pts[i] = math.Vec3{
			X: float32((rng.Float64()*2 - 1) * half),
			Y: float32((rng.Float64()*2 - 1) * half),
			Z: float32((rng.Float64()*2 - 1) * half),
		}
	}
	return pts
}

// heart sweeps the classic parametric heart and thickens it on depth.
func heart(count int, rng *rand.Rand) []math.Vec3 {
	const norm = 1.0 / 17.0
	pts := make([]math.Vec3, count)
	for i := range pts {
		t := rng.Float64() * 2 * gomath.Pi
		s := gomath.Sin(t)
		x := 16 * s * s * s
		y := 13*gomath.Cos(t) - 5*gomath.Cos(2*t) - 2*gomath.Cos(3*t) - gomath.Cos(4*t)
		thick := 0.85 + rng.Float64()*0.15
		pts[i] = math.Vec3{
			X: float32(x * norm * thick),
			Y: float32(y * norm * thick),
			Z: float32((rng.Float64()*2 - 1) * 0.3),
		}
	}
	return pts
}

// flower lays points on a golden-angle spiral with five sinusoidal petals.
func flower(count int, rng *rand.Rand) []math.Vec3 {
	golden := gomath.Pi * (3 - gomath.Sqrt(5))
	pts := make([]math.Vec3, count)
	for i := range pts {
		theta := float64(i) * golden
		r := gomath.Sqrt(float64(i)/float64(count)) * (1 + 0.3*gomath.Sin(5*theta))
		pts[i] = math.Vec3{
			X: float32(r * gomath.Cos(theta)),
			Y: float32(r * gomath.Sin(theta)),
			Z: float32(0.25*r*r - 0.15 + (rng.Float64()*2-1)*0.03),
		}
	}
	return pts
}

// planet mixes a solid core with a tilted flat ring.
func planet(count int, rng *rand.Rand) []math.Vec3 {
	const (
		coreRadius = 0.6
		ringInner  = 0.9
		ringOuter  = 1.4
		tilt       = 0.4
	)
	core := count * 6 / 10
	rot := math.RotateX(tilt)
	pts := make([]math.Vec3, count)
	for i := range pts {
		if i < core {
			pts[i] = inBall(rng, coreRadius)
			continue
		}
		angle := rng.Float64() * 2 * gomath.Pi
		// Uniform over the annulus area.
		r := gomath.Sqrt(ringInner*ringInner + rng.Float64()*(ringOuter*ringOuter-ringInner*ringInner))
		p := math.Vec3{
			X: float32(r * gomath.Cos(angle)),
			Y: float32((rng.Float64()*2 - 1) * 0.02),
			Z: float32(r * gomath.Sin(angle)),
		}
		pts[i] = rot.TransformVec3(p)
	}
	return pts
}

func fireworks(count int, rng *rand.Rand) []math.Vec3 {
	pts := make([]math.Vec3, count)
	for i := range pts {
		pts[i] = inBall(rng, 1)
	}
	return pts
}

func onSphere(rng *rand.Rand, radius float64) math.Vec3 {
	phi := gomath.Acos(2*rng.Float64() - 1)
	theta := 2 * gomath.Pi * rng.Float64()
	return math.Vec3{
		X: float32(radius * gomath.Sin(phi) * gomath.Cos(theta)),
		Y: float32(radius * gomath.Sin(phi) * gomath.Sin(theta)),
		Z: float32(radius * gomath.Cos(phi)),
	}
}

// inBall samples uniformly inside a ball: a sphere direction at radius cbrt(u).
func inBall(rng *rand.Rand, radius float64) math.Vec3 {
	return onSphere(rng, radius*gomath.Cbrt(rng.Float64()))
}

// Bounds returns the largest distance from the origin among pts.
func Bounds(pts []math.Vec3) float32 {
	var maxR float32
	for _, p := range pts {
		if l := p.Length(); l > maxR {
			maxR = l
		}
	}
	return maxR
}
