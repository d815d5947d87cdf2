// Package input turns SDL2 events into application commands and emulates a
// tracked hand with the mouse.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/handcloud/internal/gesture"
	"github.com/Faultbox/handcloud/internal/session"
	"github.com/Faultbox/handcloud/pkg/math"
)

// wheelStep is the openness change per scroll notch.
const wheelStep = 0.1

// Input handles all input processing.
type Input struct {
	commands []session.Command

	width, height int

	// Mouse hand
	inside   bool
	pointer  math.Vec2
	pressed  bool
	openness float32

	// Prompt entry
	typing bool
	prompt []rune
}

// New creates a new input handler for a window of the given size. SDL must
// already be initialized.
func New(width, height int) *Input {
	// SDL enables text input by default; only prompt entry wants it.
	sdl.StopTextInput()
	return &Input{
		commands: make([]session.Command, 0, 8),
		width:    width,
		height:   height,
		pointer:  math.Vec2{X: 0.5, Y: 0.5},
		openness: 1,
	}
}

// Update polls SDL events and converts them to commands.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.commands = i.commands[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.commands = append(i.commands, session.Command{Type: session.CmdQuit})
			quit = true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_RESIZED:
				i.width, i.height = int(e.Data1), int(e.Data2)
				i.commands = append(i.commands, session.Command{Type: session.CmdResize, Width: i.width, Height: i.height})
			case sdl.WINDOWEVENT_ENTER:
				i.inside = true
			case sdl.WINDOWEVENT_LEAVE:
				i.inside = false
				i.pressed = false
			}

		case *sdl.TextInputEvent:
			if i.typing {
				i.prompt = append(i.prompt, []rune(e.GetText())...)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			if i.typing {
				i.promptKey(e.Keysym.Scancode)
				continue
			}
			if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				i.commands = append(i.commands, session.Command{Type: session.CmdQuit})
				quit = true
				continue
			}
			if e.Keysym.Scancode == sdl.SCANCODE_RETURN {
				i.typing = true
				i.prompt = i.prompt[:0]
				sdl.StartTextInput()
				continue
			}
			if cmd, ok := keyCommand(e.Keysym.Scancode); ok {
				i.commands = append(i.commands, cmd)
			}

		case *sdl.MouseMotionEvent:
			i.inside = true
			i.pointer = i.normalize(e.X, e.Y)

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT {
				i.pressed = e.Type == sdl.MOUSEBUTTONDOWN
				i.pointer = i.normalize(e.X, e.Y)
			}

		case *sdl.MouseWheelEvent:
			i.openness = math.Clamp(i.openness+float32(e.Y)*wheelStep, 0, 1)
		}
	}

	return quit
}

func (i *Input) promptKey(sc sdl.Scancode) {
	switch sc {
	case sdl.SCANCODE_RETURN, sdl.SCANCODE_KP_ENTER:
		text := string(i.prompt)
		i.stopTyping()
		if text != "" {
			i.commands = append(i.commands, session.Command{Type: session.CmdPrompt, Text: text})
		}
	case sdl.SCANCODE_ESCAPE:
		i.stopTyping()
	case sdl.SCANCODE_BACKSPACE:
		if n := len(i.prompt); n > 0 {
			i.prompt = i.prompt[:n-1]
		}
	}
}

func (i *Input) stopTyping() {
	i.typing = false
	i.prompt = i.prompt[:0]
	sdl.StopTextInput()
}

// keyCommand maps a key press outside prompt entry to a command.
func keyCommand(sc sdl.Scancode) (session.Command, bool) {
	if sc >= sdl.SCANCODE_1 && sc <= sdl.SCANCODE_9 {
		return session.ShapeKey(int(sc-sdl.SCANCODE_1) + 1)
	}
	switch sc {
	case sdl.SCANCODE_C:
		return session.Command{Type: session.CmdCycleColor}, true
	case sdl.SCANCODE_SPACE:
		return session.Command{Type: session.CmdTrigger}, true
	case sdl.SCANCODE_F12:
		return session.Command{Type: session.CmdScreenshot}, true
	case sdl.SCANCODE_M:
		return session.Command{Type: session.CmdToggleMute}, true
	}
	return session.Command{}, false
}

func (i *Input) normalize(x, y int32) math.Vec2 {
	if i.width <= 0 || i.height <= 0 {
		return math.Vec2{X: 0.5, Y: 0.5}
	}
	return math.Vec2{
		X: math.Clamp(float32(x)/float32(i.width), 0, 1),
		Y: math.Clamp(float32(y)/float32(i.height), 0, 1),
	}
}

// Commands returns the commands from the last Update.
func (i *Input) Commands() []session.Command {
	return i.commands
}

// Typing reports whether a prompt is being entered, and its text so far.
func (i *Input) Typing() (string, bool) {
	return string(i.prompt), i.typing
}

// MouseHands returns the mouse as a tracked hand while the pointer is over
// the window, or no hands otherwise. A held left button pinches at the
// cursor; the wheel sets openness.
func (i *Input) MouseHands(opts gesture.Options) []gesture.Hand {
	if !i.inside {
		return nil
	}
	return []gesture.Hand{gesture.Synthesize(i.pointer, i.openness, i.pressed, opts)}
}
