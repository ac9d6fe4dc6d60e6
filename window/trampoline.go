// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"github.com/devblok/koruvox/input"
	"github.com/veandco/go-sdl2/sdl"
)

// Trampoline routes SDL events into input state and callbacks.
type Trampoline struct {
	Input *input.Input

	// OnResize is called with the new window size in pixels.
	OnResize func(width, height int32)

	// OnQuit is called when the window is closed or escape is pressed.
	OnQuit func()
}

var keys = map[sdl.Keycode]input.Key{
	sdl.K_w:      input.KeyW,
	sdl.K_a:      input.KeyA,
	sdl.K_s:      input.KeyS,
	sdl.K_d:      input.KeyD,
	sdl.K_n:      input.KeyN,
	sdl.K_r:      input.KeyR,
	sdl.K_l:      input.KeyL,
	sdl.K_SPACE:  input.KeySpace,
	sdl.K_LSHIFT: input.KeyShift,
	sdl.K_RSHIFT: input.KeyShift,
	sdl.K_LCTRL:  input.KeyCtrl,
	sdl.K_RCTRL:  input.KeyCtrl,
	sdl.K_ESCAPE: input.KeyEscape,
}

// KeyFromSDL maps an SDL key code, KeyUnknown if unused.
func KeyFromSDL(code sdl.Keycode) input.Key {
	if key, ok := keys[code]; ok {
		return key
	}
	return input.KeyUnknown
}

// MouseButtonFromSDL maps an SDL mouse button.
func MouseButtonFromSDL(button uint8) (input.MouseButton, bool) {
	switch button {
	case sdl.BUTTON_LEFT:
		return input.MouseLeft, true
	case sdl.BUTTON_MIDDLE:
		return input.MouseMiddle, true
	case sdl.BUTTON_RIGHT:
		return input.MouseRight, true
	}
	return 0, false
}

// Dispatch handles one event.
func (t *Trampoline) Dispatch(event sdl.Event) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		t.quit()
	case *sdl.WindowEvent:
		if ev.Event == sdl.WINDOWEVENT_RESIZED || ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			if t.OnResize != nil {
				t.OnResize(ev.Data1, ev.Data2)
			}
		}
	case *sdl.KeyboardEvent:
		key := KeyFromSDL(ev.Keysym.Sym)
		switch {
		case key == input.KeyEscape && ev.Type == sdl.KEYDOWN:
			t.quit()
		case ev.Repeat != 0:
		case ev.Type == sdl.KEYDOWN:
			t.Input.PressKey(key)
		case ev.Type == sdl.KEYUP:
			t.Input.ReleaseKey(key)
		}
	case *sdl.MouseMotionEvent:
		t.Input.SetCursorPos(float32(ev.X), float32(ev.Y))
	case *sdl.MouseButtonEvent:
		button, ok := MouseButtonFromSDL(ev.Button)
		if !ok {
			return
		}
		if ev.State == sdl.PRESSED {
			t.Input.PressMouseButton(button)
		} else {
			t.Input.ReleaseMouseButton(button)
		}
	case *sdl.MouseWheelEvent:
		t.Input.SetWheel(float32(ev.Y))
	case *sdl.ControllerAxisEvent:
		stick, axis := int(ev.Axis)/2, int(ev.Axis)%2
		t.Input.Gamepad.SetAxis(stick, axis, float32(ev.Value)/32767)
	case *sdl.ControllerButtonEvent:
		if ev.State == sdl.PRESSED {
			t.Input.Gamepad.PressButton(int(ev.Button))
		} else {
			t.Input.Gamepad.ReleaseButton(int(ev.Button))
		}
	}
}

func (t *Trampoline) quit() {
	if t.OnQuit != nil {
		t.OnQuit()
	}
}
