package gesture

import (
	"time"

	"github.com/Faultbox/handcloud/pkg/math"
)

// State is the per-frame control summary consumed by the animator.
type State struct {
	Detected bool
	Position math.Vec2 // normalized, [0,1] x [0,1]
	Pinching bool
	Openness float32 // 0 = fist, 1 = flat palm
}

// Idle is the state reported while no hand is tracked.
func Idle() State {
	return State{Position: math.Vec2{X: 0.5, Y: 0.5}}
}

// Options tunes the interpreter thresholds.
type Options struct {
	PinchThreshold     float32       `yaml:"pinch_threshold"`
	OpenMin            float32       `yaml:"open_min"`
	OpenMax            float32       `yaml:"open_max"`
	ProximityThreshold float32       `yaml:"proximity_threshold"`
	Debounce           time.Duration `yaml:"debounce"`
	Smoothing          float32       `yaml:"smoothing"` // weight of the newest sample
}

// DefaultOptions returns the calibrated defaults.
func DefaultOptions() Options {
	return Options{
		PinchThreshold:     0.05,
		OpenMin:            0.15,
		OpenMax:            0.40,
		ProximityThreshold: 0.12,
		Debounce:           time.Second,
		Smoothing:          0.3,
	}
}

// Interpreter keeps the smoothing memory and trigger debounce between frames.
// It is not safe for concurrent use.
type Interpreter struct {
	opts        Options
	state       State
	tracking    bool
	lastTrigger time.Time
	triggered   bool
}

// NewInterpreter creates an interpreter in the idle state.
func NewInterpreter(opts Options) *Interpreter {
	return &Interpreter{opts: opts, state: Idle()}
}

// State returns the most recent smoothed state.
func (in *Interpreter) State() State {
	return in.state
}

// Process consumes one landmark frame. It returns the smoothed state of the
// first hand and whether the two-hand proximity trigger fired on this frame.
func (in *Interpreter) Process(hands []Hand, now time.Time) (State, bool) {
	fired := in.proximity(hands, now)

	if len(hands) == 0 {
		in.state = Idle()
		in.tracking = false
		return in.state, fired
	}

	raw := in.read(&hands[0])
	if !in.tracking {
		// First frame after a loss seeds the filter.
		in.state = raw
		in.tracking = true
		return in.state, fired
	}

	w := in.opts.Smoothing
	in.state = State{
		Detected: true,
		Position: in.state.Position.Lerp(raw.Position, w),
		Pinching: raw.Pinching,
		Openness: math.Lerp(in.state.Openness, raw.Openness, w),
	}
	return in.state, fired
}

// read derives the unsmoothed state of one hand.
func (in *Interpreter) read(h *Hand) State {
	_, pinching := Pinch(h, in.opts.PinchThreshold)
	pos := h[MiddleMCP].XY()
	if pinching {
		pos = h[ThumbTip].XY().Midpoint(h[IndexTip].XY())
	}
	return State{
		Detected: true,
		Position: pos,
		Pinching: pinching,
		Openness: Openness(h, in.opts.OpenMin, in.opts.OpenMax),
	}
}

// proximity fires when exactly two hands are close together, at most once
// per debounce window.
func (in *Interpreter) proximity(hands []Hand, now time.Time) bool {
	if len(hands) != 2 {
		return false
	}
	if Centroid(&hands[0]).Distance(Centroid(&hands[1])) >= in.opts.ProximityThreshold {
		return false
	}
	if in.triggered && now.Sub(in.lastTrigger) < in.opts.Debounce {
		return false
	}
	in.triggered = true
	in.lastTrigger = now
	return true
}
