// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package input

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Gamepad limits
const (
	Sticks         = 2
	GamepadButtons = 16
)

// Gamepad holds two analog sticks and the button states of one pad.
type Gamepad struct {
	mu sync.RWMutex

	axes     [Sticks]glm.Vec2
	previous [Sticks]glm.Vec2
	buttons  [GamepadButtons]bool
	updated  bool
}

// SetAxis records one axis (0 for x, 1 for y) of stick.
func (g *Gamepad) SetAxis(stick, axis int, value float32) {
	if stick < 0 || stick >= Sticks || axis < 0 || axis > 1 {
		return
	}
	g.mu.Lock()
	g.previous[stick] = g.axes[stick]
	g.axes[stick][axis] = glm.Clamp(value, -1, 1)
	g.mu.Unlock()
}

// Axis returns the position of stick.
func (g *Gamepad) Axis(stick int) glm.Vec2 {
	if stick < 0 || stick >= Sticks {
		return glm.Vec2{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.axes[stick]
}

// AxisDelta returns the change of stick by the last SetAxis.
func (g *Gamepad) AxisDelta(stick int) glm.Vec2 {
	if stick < 0 || stick >= Sticks {
		return glm.Vec2{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.axes[stick].Sub(g.previous[stick])
}

// PressButton marks button as held down.
func (g *Gamepad) PressButton(button int) {
	g.setButton(button, true)
}

// ReleaseButton marks button as released.
func (g *Gamepad) ReleaseButton(button int) {
	g.setButton(button, false)
}

func (g *Gamepad) setButton(button int, pressed bool) {
	if button < 0 || button >= GamepadButtons {
		return
	}
	g.mu.Lock()
	g.buttons[button] = pressed
	g.updated = true
	g.mu.Unlock()
}

// IsButtonPressed reports whether button is held down.
func (g *Gamepad) IsButtonPressed(button int) bool {
	if button < 0 || button >= GamepadButtons {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.buttons[button]
}

// WasButtonPressedOnce reports a held button once.
func (g *Gamepad) WasButtonPressedOnce(button int) bool {
	if button < 0 || button >= GamepadButtons {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.buttons[button] || !g.updated {
		return false
	}
	g.buttons[button] = false
	return true
}
