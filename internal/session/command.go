package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/pkg/shape"
)

// CommandType identifies a user action coming from any front end.
type CommandType int

const (
	CmdNone CommandType = iota
	CmdQuit
	CmdResize
	CmdShape
	CmdCycleColor
	CmdTrigger
	CmdScreenshot
	CmdPrompt
	CmdToggleMute
)

// Command is one user action.
type Command struct {
	Type   CommandType
	Shape  shape.ID // CmdShape
	Width  int      // CmdResize
	Height int      // CmdResize
	Text   string   // CmdPrompt
}

// ShapeKey maps a 1-based number key to a shape command.
func ShapeKey(n int) (Command, bool) {
	ids := shape.IDs()
	if n < 1 || n > len(ids) {
		return Command{}, false
	}
	return Command{Type: CmdShape, Shape: ids[n-1]}, true
}

// Apply handles the commands that only touch session state and reports
// whether cmd was consumed. Window, audio and prompt commands are left to
// the caller.
func (c *Controller) Apply(cmd Command, now time.Time) bool {
	switch cmd.Type {
	case CmdShape:
		c.SelectShape(cmd.Shape)
	case CmdCycleColor:
		c.CycleColor()
	case CmdTrigger:
		c.Trigger(now)
	default:
		return false
	}
	return true
}

// CycleColor eases the theme to the next palette color.
func (c *Controller) CycleColor() {
	palette := color.Palette()
	c.paletteIdx = (c.paletteIdx + 1) % len(palette)
	col := palette[c.paletteIdx]
	logger.Debug("theme color", zap.String("color", col.Hex()))
	c.SetColor(col)
}
