// Package glclient is the windowed OpenGL front end.
package glclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/app"
	"github.com/Faultbox/handcloud/internal/config"
	"github.com/Faultbox/handcloud/internal/engine/audio"
	"github.com/Faultbox/handcloud/internal/engine/camera"
	"github.com/Faultbox/handcloud/internal/engine/debug"
	"github.com/Faultbox/handcloud/internal/engine/input"
	"github.com/Faultbox/handcloud/internal/engine/renderer"
	"github.com/Faultbox/handcloud/internal/engine/window"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/internal/session"
)

const title = "Handcloud"

// Client owns the window and the render loop.
type Client struct {
	cfg      *config.Config
	core     *app.Core
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.Camera
	audio    *audio.Manager
	shots    *debug.ScreenshotCapture
	wantShot bool
}

// New opens the window and prepares every subsystem.
func New(cfg *config.Config) (*Client, error) {
	logger.Info("initializing client",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int("particles", cfg.Particles.Animation.Count),
	)

	core, err := app.NewCore(cfg, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, core: core}

	c.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist.
	pw, ph := c.window.DrawableSize()
	c.renderer, err = renderer.New(renderer.Config{
		Width:        pw,
		Height:       ph,
		MaxParticles: cfg.Particles.Animation.Count,
	})
	if err != nil {
		c.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	w, h := c.window.GetSize()
	c.input = input.New(w, h)
	c.camera = camera.New(cfg.Graphics.FOV, cfg.Graphics.CameraDist, pw, ph)
	core.Controller().SetViewport(c.camera.ViewportAt(0))

	c.audio = audio.New(cfg.Audio.Volume, cfg.Audio.Muted)
	if err := c.audio.Init(); err != nil {
		// Non-fatal, the cloud works without sound.
		logger.Warn("audio unavailable", zap.Error(err))
	} else {
		if cfg.Audio.ClapSound != "" {
			if err := c.audio.LoadClap(cfg.Audio.ClapSound); err != nil {
				logger.Warn("clap sound not loaded, using synthesized burst", zap.Error(err))
			}
		}
		core.SetEffects(c.audio)
	}

	c.shots = debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "handcloud", cfg.Debug.ScreenshotFormat)

	if core.Emulated() {
		logger.Info("no capture source configured, the mouse drives the hand")
	}
	logger.Info("client initialized successfully")
	return c, nil
}

// Run drives the frame loop until quit or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.core.Start(ctx)

	frameCount := 0
	fpsTimer := time.Now()
	lastTitle := ""

	logger.Info("starting frame loop")

	for ctx.Err() == nil {
		now := time.Now()

		quit := c.input.Update()
		for _, cmd := range c.input.Commands() {
			switch cmd.Type {
			case session.CmdResize:
				c.resize()
			case session.CmdScreenshot:
				c.wantShot = true
			default:
				if c.core.Handle(cmd, now) {
					quit = true
				}
			}
		}
		if quit {
			break
		}

		frame := c.core.Step(now, c.input.MouseHands(c.cfg.Gesture))

		c.renderer.Begin()
		c.renderer.DrawFrame(frame, c.camera)
		if c.wantShot {
			c.screenshot()
			c.wantShot = false
		}
		c.window.SwapBuffers()

		t := c.titleText()
		if t != lastTitle {
			c.window.SetTitle(t)
			lastTitle = t
		}

		frameCount++
		if since := time.Since(fpsTimer); since >= time.Second {
			fps := float64(frameCount) / since.Seconds()
			if c.cfg.Graphics.ShowFPS {
				logger.Debug("fps", zap.Float64("fps", fps), zap.Int("particles", len(frame.Instances)))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	cancel()
	return c.core.Wait()
}

func (c *Client) titleText() string {
	if text, typing := c.input.Typing(); typing {
		return title + " | prompt> " + text + "_"
	}
	return title + " | " + c.core.Status()
}

func (c *Client) resize() {
	pw, ph := c.window.DrawableSize()
	c.renderer.Resize(pw, ph)
	c.camera.Resize(pw, ph)
	c.core.Controller().SetViewport(c.camera.ViewportAt(0))
}

func (c *Client) screenshot() {
	pixels, w, h := c.renderer.ReadPixels()
	path, err := c.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up client resources.
func (c *Client) Close() {
	logger.Info("closing client")

	if c.audio != nil {
		c.audio.Close()
	}
	if c.renderer != nil {
		c.renderer.Close()
	}
	if c.window != nil {
		c.window.Close()
	}
}
