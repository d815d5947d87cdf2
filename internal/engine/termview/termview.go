// Package termview renders the particle cloud onto terminal cells with tcell
// and turns terminal input into session commands.
package termview

import (
	"github.com/gdamore/tcell/v2"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/color"
	"github.com/Faultbox/handcloud/internal/engine/camera"
	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/internal/session"
	"github.com/Faultbox/handcloud/pkg/math"
)

// ramp orders glyphs from sparse to dense.
var ramp = []rune(" .:-=+*#%@")

// saturation is the particle count at which a cell renders fully dense.
const saturation = 6

// cellAspect is the height of a terminal cell relative to its width.
const cellAspect = 2

// wheelStep is the openness change per scroll notch.
const wheelStep = 0.1

// View draws frames to a tcell screen. The bottom row is a status line.
type View struct {
	screen tcell.Screen
	cam    *camera.Camera

	width, height int
	density       []float32
	world         []math.Vec3

	// Mouse hand
	inside   bool
	pointer  math.Vec2
	pressed  bool
	openness float32

	// Prompt entry
	typing bool
	prompt []rune
}

// New wraps an initialized screen.
func New(screen tcell.Screen, cam *camera.Camera) *View {
	v := &View{
		screen:   screen,
		cam:      cam,
		pointer:  math.Vec2{X: 0.5, Y: 0.5},
		openness: 1,
	}
	v.Resize()
	return v
}

// Resize picks up the current screen size.
func (v *View) Resize() {
	v.width, v.height = v.screen.Size()
	rows := v.rows()
	v.density = make([]float32, v.width*rows)
	v.cam.Resize(v.width, rows*cellAspect)
}

func (v *View) rows() int {
	return max(v.height-1, 0)
}

// Viewport returns the world size visible at the cloud's depth.
func (v *View) Viewport() math.Vec2 {
	return v.cam.ViewportAt(0)
}

// rasterize counts projected particles per cell.
func (v *View) rasterize(f animator.Frame) {
	clear(v.density)
	rows := v.rows()
	if v.width == 0 || rows == 0 {
		return
	}
	v.world = f.WorldPositions(v.world[:0])
	for _, p := range v.world {
		s, _, ok := v.cam.Project(p)
		if !ok {
			continue
		}
		x := min(int(s.X*float32(v.width)), v.width-1)
		y := min(int(s.Y*float32(rows)), rows-1)
		v.density[y*v.width+x]++
	}
}

// Draw renders f and the status text.
func (v *View) Draw(f animator.Frame, status string) {
	v.rasterize(f)
	v.screen.Clear()

	bg := tcell.StyleDefault.Background(tcell.ColorBlack)
	for i, d := range v.density {
		if d == 0 {
			continue
		}
		level := math.Clamp(d/saturation, 0, 1)
		glyph := ramp[1+int(level*float32(len(ramp)-2)+0.5)]
		style := bg.Foreground(shade(f.Material, level))
		v.screen.SetContent(i%v.width, i/v.width, glyph, nil, style)
	}

	if v.typing {
		status = "prompt> " + string(v.prompt) + "_"
	}
	v.drawStatus(status)
	v.screen.Show()
}

func (v *View) drawStatus(text string) {
	if v.height == 0 {
		return
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	y := v.height - 1
	runes := []rune(text)
	for x := 0; x < v.width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		v.screen.SetContent(x, y, r, nil, style)
	}
}

// shade blends from a dim color to the emissive highlight as density rises.
func shade(m animator.Material, level float32) tcell.Color {
	c := color.RGB{
		R: m.Color.R*(0.35+0.65*level) + m.Emissive.R*level*0.4,
		G: m.Color.G*(0.35+0.65*level) + m.Emissive.G*level*0.4,
		B: m.Color.B*(0.35+0.65*level) + m.Emissive.B*level*0.4,
	}
	return tcell.NewRGBColor(channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) int32 {
	return int32(math.Clamp(v, 0, 1)*255 + 0.5)
}

// HandleEvent converts one terminal event. ok is false when the event
// produced no command.
func (v *View) HandleEvent(ev tcell.Event) (cmd session.Command, ok bool) {
	switch e := ev.(type) {
	case *tcell.EventResize:
		v.Resize()
		return session.Command{Type: session.CmdResize, Width: v.width, Height: v.height}, true
	case *tcell.EventKey:
		if v.typing {
			return v.promptKey(e.Key(), e.Rune())
		}
		return v.keyCommand(e.Key(), e.Rune())
	case *tcell.EventMouse:
		x, y := e.Position()
		v.mouse(x, y, e.Buttons())
	}
	return session.Command{}, false
}

func (v *View) keyCommand(key tcell.Key, r rune) (session.Command, bool) {
	switch key {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return session.Command{Type: session.CmdQuit}, true
	case tcell.KeyEnter:
		v.typing = true
		v.prompt = v.prompt[:0]
		return session.Command{}, false
	case tcell.KeyRune:
	default:
		return session.Command{}, false
	}

	switch {
	case r >= '1' && r <= '9':
		return session.ShapeKey(int(r - '0'))
	case r == 'q':
		return session.Command{Type: session.CmdQuit}, true
	case r == 'c':
		return session.Command{Type: session.CmdCycleColor}, true
	case r == ' ':
		return session.Command{Type: session.CmdTrigger}, true
	case r == 'm':
		return session.Command{Type: session.CmdToggleMute}, true
	}
	return session.Command{}, false
}

func (v *View) promptKey(key tcell.Key, r rune) (session.Command, bool) {
	switch key {
	case tcell.KeyEnter:
		text := string(v.prompt)
		v.typing = false
		v.prompt = v.prompt[:0]
		if text == "" {
			return session.Command{}, false
		}
		return session.Command{Type: session.CmdPrompt, Text: text}, true
	case tcell.KeyEscape:
		v.typing = false
		v.prompt = v.prompt[:0]
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.prompt); n > 0 {
			v.prompt = v.prompt[:n-1]
		}
	case tcell.KeyRune:
		v.prompt = append(v.prompt, r)
	}
	return session.Command{}, false
}

func (v *View) mouse(x, y int, buttons tcell.ButtonMask) {
	rows := v.rows()
	if v.width == 0 || rows == 0 {
		return
	}
	if y >= rows {
		v.inside = false
		v.pressed = false
		return
	}
	v.inside = true
	v.pointer = math.Vec2{
		X: (float32(x) + 0.5) / float32(v.width),
		Y: (float32(y) + 0.5) / float32(rows),
	}
	v.pressed = buttons&tcell.Button1 != 0
	if buttons&tcell.WheelUp != 0 {
		v.openness = math.Clamp(v.openness+wheelStep, 0, 1)
	}
	if buttons&tcell.WheelDown != 0 {
		v.openness = math.Clamp(v.openness-wheelStep, 0, 1)
	}
}

// MouseHands returns the mouse as a tracked hand while it hovers over the
// cloud area.
func (v *View) MouseHands(opts gesture.Options) []gesture.Hand {
	if !v.inside {
		return nil
	}
	return []gesture.Hand{gesture.Synthesize(v.pointer, v.openness, v.pressed, opts)}
}
