// Package app runs the frame loop shared by the window and terminal front
// ends: it feeds capture frames and generated clouds into the session
// controller and dispatches user commands.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/capture"
	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/config"
	"github.com/Faultbox/handcloud/internal/genai"
	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/internal/session"
	"github.com/Faultbox/handcloud/pkg/shape"
)

// GeneratedShape labels clouds that came from a prompt.
const GeneratedShape shape.ID = "generated"

// frameBuffer absorbs a burst of capture frames between display frames.
const frameBuffer = 8

// Effects is the sound output the core drives.
type Effects interface {
	PlayExplosion() error
	ToggleMute() bool
}

// Core is the front-end independent part of the application.
type Core struct {
	cfg    *config.Config
	ctrl   *session.Controller
	source capture.Source
	ai     *genai.Client
	sfx    Effects

	frames  chan capture.Frame
	results chan genai.Result

	group *errgroup.Group
	ctx   context.Context

	hands    []gesture.Hand
	pending  int
	lastErr  string
	lastTick time.Time
}

// NewCore builds the controller and the landmark source described by cfg.
// A nil rng seeds from the runtime.
func NewCore(cfg *config.Config, rng *rand.Rand) (*Core, error) {
	col, err := color.Parse(cfg.Particles.Color)
	if err != nil {
		return nil, fmt.Errorf("particles.color: %w", err)
	}

	ctrl := session.New(session.Config{
		Shape:         shape.Parse(cfg.Particles.Shape),
		Color:         col,
		ExplodeWindow: cfg.Particles.ExplodeWindow,
		Gesture:       cfg.Gesture,
		Animator:      cfg.Particles.Animation,
	}, rng)

	c := &Core{
		cfg:     cfg,
		ctrl:    ctrl,
		source:  newSource(cfg.Capture),
		ai:      genai.New(cfg.GenAI.Endpoint, cfg.GenAI.Timeout),
		frames:  make(chan capture.Frame, frameBuffer),
		results: make(chan genai.Result, 1),
	}
	ctrl.OnExplode = c.explode
	return c, nil
}

// newSource picks the landmark source: a live stream, a recording, or none
// when the mouse stands in for a hand.
func newSource(cfg config.CaptureConfig) capture.Source {
	switch {
	case cfg.URL != "":
		return capture.NewWebSocketSource(cfg.URL, cfg.ReconnectDelay, cfg.ReadTimeout)
	case cfg.ReplayFile != "":
		return &capture.Replay{Path: cfg.ReplayFile, Loop: true}
	default:
		return nil
	}
}

// SetEffects attaches the sound output.
func (c *Core) SetEffects(sfx Effects) {
	c.sfx = sfx
}

// SetSource replaces the landmark source. It must be called before Start.
func (c *Core) SetSource(src capture.Source) {
	c.source = src
}

// Controller exposes the session for front ends.
func (c *Core) Controller() *session.Controller {
	return c.ctrl
}

// Emulated reports whether the mouse drives the hand.
func (c *Core) Emulated() bool {
	return c.source == nil
}

// Start launches the background workers. Wait must be called after ctx is
// cancelled.
func (c *Core) Start(ctx context.Context) {
	c.group, c.ctx = errgroup.WithContext(ctx)
	if c.source != nil {
		src := c.source
		c.group.Go(func() error {
			if err := src.Run(c.ctx, c.frames); err != nil {
				// Capture is optional; keep running on idle gestures.
				logger.Error("capture stopped", zap.Error(err))
			}
			// Whatever the source last reported is no longer live.
			capture.SendLost(c.ctx, c.frames)
			return nil
		})
	}
}

// Wait blocks until every background worker has returned.
func (c *Core) Wait() error {
	if c.group == nil {
		return nil
	}
	return c.group.Wait()
}

// Step advances one display frame. mouse is used as the hand input when no
// capture source is configured.
func (c *Core) Step(now time.Time, mouse []gesture.Hand) animator.Frame {
	dt := float32(0)
	if !c.lastTick.IsZero() {
		dt = float32(now.Sub(c.lastTick).Seconds())
	}
	c.lastTick = now

	fresh := false
	if c.source == nil {
		c.hands = mouse
		fresh = true
	} else {
		// Only the newest capture frame matters.
	drain:
		for {
			select {
			case f := <-c.frames:
				c.hands = f.Hands
				fresh = true
			default:
				break drain
			}
		}
	}

	select {
	case res := <-c.results:
		c.pending--
		c.applyResult(res)
	default:
	}

	return c.ctrl.Update(c.hands, fresh, now, dt)
}

func (c *Core) applyResult(res genai.Result) {
	if res.Err != nil {
		c.lastErr = res.Err.Error()
		return
	}
	if c.ctrl.SetCloud(GeneratedShape, res.Points) {
		c.lastErr = ""
	}
}

// Handle dispatches a command. It returns true when the application should
// quit. Resize and screenshot belong to the front end and are ignored here.
func (c *Core) Handle(cmd session.Command, now time.Time) bool {
	if c.ctrl.Apply(cmd, now) {
		return false
	}
	switch cmd.Type {
	case session.CmdQuit:
		return true
	case session.CmdPrompt:
		c.generate(cmd.Text)
	case session.CmdToggleMute:
		if c.sfx != nil {
			logger.Info("audio", zap.Bool("muted", c.sfx.ToggleMute()))
		}
	}
	return false
}

// generate requests a cloud for prompt in the background.
func (c *Core) generate(prompt string) {
	if c.group == nil {
		logger.Warn("generation requested before start")
		return
	}
	if c.ai.Endpoint == "" {
		c.lastErr = "no generator configured"
		logger.Warn("prompt ignored: genai.endpoint is not set", zap.String("prompt", prompt))
		return
	}
	logger.Info("generating shape", zap.String("prompt", prompt))
	c.pending++
	ctx := c.ctx
	c.group.Go(func() error {
		res := <-c.ai.Async(ctx, prompt, c.cfg.GenAI.Points)
		select {
		case c.results <- res:
		case <-ctx.Done():
		}
		return nil
	})
}

func (c *Core) explode() {
	if c.sfx == nil {
		return
	}
	if err := c.sfx.PlayExplosion(); err != nil {
		logger.Debug("explosion sound", zap.Error(err))
	}
}

// Status is a one-line summary for titles and the terminal status bar.
func (c *Core) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape %s", c.ctrl.Shape())
	g := c.ctrl.Gesture()
	switch {
	case !g.Detected:
		b.WriteString(" | no hand")
	case g.Pinching:
		b.WriteString(" | pinch")
	default:
		fmt.Fprintf(&b, " | open %.2f", g.Openness)
	}
	if c.ctrl.Exploding() {
		b.WriteString(" | boom")
	}
	if c.pending > 0 {
		b.WriteString(" | generating...")
	} else if c.lastErr != "" {
		fmt.Fprintf(&b, " | %s", c.lastErr)
	}
	return b.String()
}
