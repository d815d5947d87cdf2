// Package termclient is the terminal front end: the cloud is drawn as
// character cells and the mouse or a capture stream drives it.
package termclient

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/app"
	"github.com/Faultbox/handcloud/internal/config"
	"github.com/Faultbox/handcloud/internal/engine/audio"
	"github.com/Faultbox/handcloud/internal/engine/camera"
	"github.com/Faultbox/handcloud/internal/engine/termview"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/internal/session"
)

// FrameInterval paces terminal redraws.
const FrameInterval = time.Second / 30

// Client owns the terminal screen and the redraw loop.
type Client struct {
	cfg    *config.Config
	core   *app.Core
	screen tcell.Screen
	view   *termview.View
	audio  *audio.Manager
}

// New takes over the terminal. A nil screen opens the controlling terminal.
func New(cfg *config.Config, screen tcell.Screen) (*Client, error) {
	core, err := app.NewCore(cfg, nil)
	if err != nil {
		return nil, err
	}

	if screen == nil {
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("failed to open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return nil, fmt.Errorf("failed to init terminal: %w", err)
		}
	}
	screen.EnableMouse()
	screen.HideCursor()

	c := &Client{
		cfg:    cfg,
		core:   core,
		screen: screen,
		view:   termview.New(screen, camera.New(cfg.Graphics.FOV, cfg.Graphics.CameraDist, 1, 1)),
	}
	core.Controller().SetViewport(c.view.Viewport())

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

	return c, nil
}

// Run redraws at FrameInterval until quit or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.core.Start(ctx)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			// PollEvent returns nil once the screen is finalized.
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev := <-events:
			cmd, ok := c.view.HandleEvent(ev)
			if !ok {
				continue
			}
			if cmd.Type == session.CmdResize {
				c.core.Controller().SetViewport(c.view.Viewport())
				continue
			}
			if c.core.Handle(cmd, time.Now()) {
				break loop
			}
		case now := <-ticker.C:
			frame := c.core.Step(now, c.view.MouseHands(c.cfg.Gesture))
			c.view.Draw(frame, c.core.Status())
		}
	}

	cancel()
	return c.core.Wait()
}

// Close restores the terminal.
func (c *Client) Close() {
	if c.audio != nil {
		c.audio.Close()
	}
	c.screen.Fini()
}
