// Package animator owns the particle pool and advances it one frame at a time
// toward the current target cloud, under gesture control.
package animator

// Params holds the animation tunables.
type Params struct {
	Count         int     `yaml:"count"`
	InitialSpread float32 `yaml:"initial_spread"` // edge of the random starting cube

	MoveLerp          float32 `yaml:"move_lerp"`
	BlendLerp         float32 `yaml:"blend_lerp"`
	RotateSensitivity float32 `yaml:"rotate_sensitivity"`
	RotateOpenness    float32 `yaml:"rotate_openness"` // flat palm above this rotates
	IdleSpin          float32 `yaml:"idle_spin"`

	IdleScale          float32 `yaml:"idle_scale"`
	PinchScale         float32 `yaml:"pinch_scale"`
	MinScale           float32 `yaml:"min_scale"`
	ScaleRange         float32 `yaml:"scale_range"`
	CompressedOpenness float32 `yaml:"compressed_openness"`
	BreathJitter       float32 `yaml:"breath_jitter"`
	DriftAmplitude     float32 `yaml:"drift_amplitude"`

	ParticleBaseScale float32 `yaml:"particle_base_scale"`
	PinchOpenness     float32 `yaml:"pinch_openness"`

	ExplodeFactor        float32 `yaml:"explode_factor"`
	ExplodeLayer         float32 `yaml:"explode_layer"`
	ExplodeSpinY         float32 `yaml:"explode_spin_y"`
	ExplodeSpinX         float32 `yaml:"explode_spin_x"`
	ExplodeParticleScale float32 `yaml:"explode_particle_scale"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Count:         1500,
		InitialSpread: 4,

		MoveLerp:          0.15,
		BlendLerp:         0.1,
		RotateSensitivity: 5.0,
		RotateOpenness:    0.6,
		IdleSpin:          0.001,

		IdleScale:          1.5,
		PinchScale:         1.0,
		MinScale:           0.2,
		ScaleRange:         1.3,
		CompressedOpenness: 0.2,
		BreathJitter:       0.025,
		DriftAmplitude:     0.01,

		ParticleBaseScale: 0.02,
		PinchOpenness:     0.6,

		ExplodeFactor:        1.08,
		ExplodeLayer:         0.004,
		ExplodeSpinY:         0.2,
		ExplodeSpinX:         0.1,
		ExplodeParticleScale: 0.04,
	}
}
