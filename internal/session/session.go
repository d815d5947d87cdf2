// Package session ties the gesture interpreter, the animator and the current
// shape together and runs the timed explosion transition between shapes.
package session

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/pkg/math"
	"github.com/Faultbox/handcloud/pkg/shape"
)

// Config holds the session settings.
type Config struct {
	Shape         shape.ID
	Color         color.RGB
	ExplodeWindow time.Duration
	Gesture       gesture.Options
	Animator      animator.Params
}

// Controller is driven once per display frame from the render loop.
// It is not safe for concurrent use.
type Controller struct {
	cfg    Config
	rng    *rand.Rand
	interp *gesture.Interpreter
	anim   *animator.Animator
	theme  *color.Tween

	paletteIdx int

	shapeID  shape.ID
	cloud    []math.Vec3
	gesture  gesture.State
	viewport math.Vec2

	exploding    bool
	explodeUntil time.Time

	// OnExplode is called when an explosion starts.
	OnExplode func()
	// OnShape is called after the target cloud changes.
	OnShape func(id shape.ID, points int)
}

// New creates a controller showing cfg.Shape. rng seeds the pool scatter,
// the jitter and the shape samples.
func New(cfg Config, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.ExplodeWindow <= 0 {
		cfg.ExplodeWindow = 500 * time.Millisecond
	}
	c := &Controller{
		cfg:      cfg,
		rng:      rng,
		interp:   gesture.NewInterpreter(cfg.Gesture),
		anim:     animator.New(cfg.Animator, rng),
		theme:    color.NewTween(cfg.Color),
		gesture:  gesture.Idle(),
		viewport: math.Vec2{X: 8, Y: 6},
	}
	for i, col := range color.Palette() {
		if col == cfg.Color {
			c.paletteIdx = i
		}
	}
	c.SelectShape(cfg.Shape)
	return c
}

// SelectShape regenerates the target cloud for id.
func (c *Controller) SelectShape(id shape.ID) {
	if !id.Known() {
		logger.Debug("unknown shape, using sphere", zap.String("shape", string(id)))
	}
	c.shapeID = id
	c.cloud = shape.Generate(id, c.anim.Len(), c.rng)
	c.shapeChanged()
}

// SetCloud replaces the target with externally sourced points. An empty
// cloud is ignored and the previous target stays in place.
func (c *Controller) SetCloud(id shape.ID, points []math.Vec3) bool {
	if len(points) == 0 {
		logger.Warn("empty point cloud ignored", zap.String("shape", string(id)))
		return false
	}
	c.shapeID = id
	c.cloud = points
	c.shapeChanged()
	return true
}

func (c *Controller) shapeChanged() {
	logger.Info("target shape", zap.String("shape", string(c.shapeID)), zap.Int("points", len(c.cloud)))
	if c.OnShape != nil {
		c.OnShape(c.shapeID, len(c.cloud))
	}
}

// SetColor eases the theme toward col.
func (c *Controller) SetColor(col color.RGB) {
	c.theme.Set(col)
}

// SetViewport sets the visible world size used to map pinch positions.
func (c *Controller) SetViewport(v math.Vec2) {
	c.viewport = v
}

// Trigger starts an explosion unless one is already running.
func (c *Controller) Trigger(now time.Time) {
	if c.exploding {
		return
	}
	c.exploding = true
	c.explodeUntil = now.Add(c.cfg.ExplodeWindow)
	logger.Debug("explosion started", zap.Duration("window", c.cfg.ExplodeWindow))
	if c.OnExplode != nil {
		c.OnExplode()
	}
}

// Update advances one frame. hands is consulted only when fresh is true;
// between capture frames the last gesture state is reused.
func (c *Controller) Update(hands []gesture.Hand, fresh bool, now time.Time, dt float32) animator.Frame {
	if fresh {
		state, fired := c.interp.Process(hands, now)
		c.gesture = state
		if fired {
			c.Trigger(now)
		}
	}

	if c.exploding && !now.Before(c.explodeUntil) {
		c.exploding = false
		c.SelectShape(c.shapeID.Next())
	}

	theme := c.theme.Update(dt)
	return c.anim.Tick(animator.Input{
		Gesture:   c.gesture,
		Target:    c.cloud,
		Exploding: c.exploding,
		Viewport:  c.viewport,
		Material:  animator.MaterialFor(theme),
		Flash:     animator.MaterialFor(color.Flash),
		Elapsed:   dt,
	})
}

// Shape returns the current shape id.
func (c *Controller) Shape() shape.ID {
	return c.shapeID
}

// Cloud returns the current target cloud.
func (c *Controller) Cloud() []math.Vec3 {
	return c.cloud
}

// Color returns the theme color the tween is heading to.
func (c *Controller) Color() color.RGB {
	return c.theme.Target()
}

// Exploding reports whether the explosion window is open.
func (c *Controller) Exploding() bool {
	return c.exploding
}

// Gesture returns the gesture state used on the last frame.
func (c *Controller) Gesture() gesture.State {
	return c.gesture
}

// Animator exposes the pool for views that read it directly.
func (c *Controller) Animator() *animator.Animator {
	return c.anim
}
