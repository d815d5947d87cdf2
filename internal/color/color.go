// Package color holds the particle theme colors and their eased transitions.
package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// RGB is a linear color with components in [0, 1].
type RGB struct {
	R, G, B float32
}

// Theme palette cycled by the color key.
var (
	Cyan    = RGB{0.2, 0.8, 1.0}
	Magenta = RGB{1.0, 0.3, 0.8}
	Gold    = RGB{1.0, 0.75, 0.2}
	Lime    = RGB{0.5, 1.0, 0.4}
	Violet  = RGB{0.6, 0.4, 1.0}
	Coral   = RGB{1.0, 0.45, 0.35}

	// Flash is the explosion color; it is kept off the palette on purpose.
	Flash = RGB{1.0, 0.95, 0.8}
)

// Palette returns the theme colors in cycle order.
func Palette() []RGB {
	return []RGB{Cyan, Magenta, Gold, Lime, Violet, Coral}
}

// Parse reads "#rrggbb" or "rrggbb".
func Parse(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return RGB{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
	}, nil
}

// Hex formats c as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B))
}

// Emissive is the glow paired with a base color.
func (c RGB) Emissive() RGB {
	return RGB{c.R * 0.6, c.G * 0.6, c.B * 0.6}
}

// Array returns the components for shader uniforms.
func (c RGB) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// TransitionSeconds is how long a theme change takes to settle.
const TransitionSeconds = 0.4

// Tween eases the current theme color toward a new one.
type Tween struct {
	current RGB
	target  RGB
	tweens  [3]*gween.Tween
	active  bool
}

// NewTween starts at c with no transition running.
func NewTween(c RGB) *Tween {
	return &Tween{current: c, target: c}
}

// Set begins a transition from the current value to c.
func (t *Tween) Set(c RGB) {
	t.tweens[0] = gween.New(t.current.R, c.R, TransitionSeconds, ease.OutQuad)
	t.tweens[1] = gween.New(t.current.G, c.G, TransitionSeconds, ease.OutQuad)
	t.tweens[2] = gween.New(t.current.B, c.B, TransitionSeconds, ease.OutQuad)
	t.target = c
	t.active = true
}

// Update advances the transition by dt seconds and returns the current color.
func (t *Tween) Update(dt float32) RGB {
	if !t.active {
		return t.current
	}
	r, doneR := t.tweens[0].Update(dt)
	g, doneG := t.tweens[1].Update(dt)
	b, doneB := t.tweens[2].Update(dt)
	t.current = RGB{r, g, b}
	t.active = !(doneR && doneG && doneB)
	return t.current
}

// Current returns the color without advancing.
func (t *Tween) Current() RGB {
	return t.current
}

// Target returns the color the transition ends on.
func (t *Tween) Target() RGB {
	return t.target
}

// Done reports whether no transition is running.
func (t *Tween) Done() bool {
	return !t.active
}
