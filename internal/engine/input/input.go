// Package input turns SDL2 events into per-frame viewer input.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Frame is the input gathered during one Update.
type Frame struct {
	Quit bool

	// Resized is set when the drawable size changed.
	Resized bool

	// Mouse drag with the left or right button held, in pixels.
	DragX float32
	DragY float32

	// Wheel is the vertical scroll this frame; positive scrolls away from the user.
	Wheel float32

	pressed []sdl.Keycode
}

// Pressed reports whether key went down this frame.
func (f *Frame) Pressed(key sdl.Keycode) bool {
	for _, k := range f.pressed {
		if k == key {
			return true
		}
	}
	return false
}

// Input handles all input processing.
type Input struct {
	frame    Frame
	dragging bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		frame: Frame{pressed: make([]sdl.Keycode, 0, 8)},
	}
}

// Update polls SDL events and returns the input of this frame.
func (i *Input) Update() *Frame {
	f := &i.frame
	*f = Frame{pressed: f.pressed[:0]}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			f.Quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				f.Resized = true
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				f.pressed = append(f.pressed, e.Keysym.Sym)
				if e.Keysym.Sym == sdl.K_ESCAPE {
					f.Quit = true
				}
			}

		case *sdl.MouseMotionEvent:
			if i.dragging {
				f.DragX += float32(e.XRel)
				f.DragY += float32(e.YRel)
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT || e.Button == sdl.BUTTON_RIGHT {
				i.dragging = e.State == sdl.PRESSED
			}

		case *sdl.MouseWheelEvent:
			f.Wheel += float32(e.Y)
		}
	}

	return f
}

// KeyHeld reports whether a key is currently down.
func KeyHeld(code sdl.Scancode) bool {
	return sdl.GetKeyboardState()[code] != 0
}
