// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package input keeps the keyboard, mouse and gamepad state fed by the
// window event loop and read by the render loop.
package input

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Key is a keyboard key independent of the window system.
type Key int

// Keys the application reacts to
const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyN
	KeyR
	KeyL
	KeySpace
	KeyShift
	KeyCtrl
	KeyEscape
	KeyCount
)

// MouseButton is a mouse button independent of the window system.
type MouseButton int

// Mouse buttons
const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseButtonCount
)

// KeyboardMouse holds key and mouse button states and the cursor.
// It is safe for concurrent use.
type KeyboardMouse struct {
	mu sync.RWMutex

	keys    [KeyCount]bool
	buttons [MouseButtonCount]bool

	keysUpdated    bool
	buttonsUpdated bool

	cursor   glm.Vec2
	previous glm.Vec2
	wheel    float32
}

func (k Key) valid() bool { return k > KeyUnknown && k < KeyCount }

func (b MouseButton) valid() bool { return b >= MouseLeft && b < MouseButtonCount }

// PressKey marks key as held down.
func (km *KeyboardMouse) PressKey(key Key) {
	if !key.valid() {
		return
	}
	km.mu.Lock()
	km.keys[key] = true
	km.keysUpdated = true
	km.mu.Unlock()
}

// ReleaseKey marks key as released.
func (km *KeyboardMouse) ReleaseKey(key Key) {
	if !key.valid() {
		return
	}
	km.mu.Lock()
	km.keys[key] = false
	km.keysUpdated = true
	km.mu.Unlock()
}

// IsKeyPressed reports whether key is held down.
func (km *KeyboardMouse) IsKeyPressed(key Key) bool {
	if !key.valid() {
		return false
	}
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.keys[key]
}

// WasKeyPressedOnce reports a held key once. The key reads as released
// until it is pressed again.
func (km *KeyboardMouse) WasKeyPressedOnce(key Key) bool {
	if !key.valid() {
		return false
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if !km.keys[key] || !km.keysUpdated {
		return false
	}
	km.keys[key] = false
	return true
}

// PressMouseButton marks button as held down.
func (km *KeyboardMouse) PressMouseButton(button MouseButton) {
	if !button.valid() {
		return
	}
	km.mu.Lock()
	km.buttons[button] = true
	km.buttonsUpdated = true
	km.mu.Unlock()
}

// ReleaseMouseButton marks button as released.
func (km *KeyboardMouse) ReleaseMouseButton(button MouseButton) {
	if !button.valid() {
		return
	}
	km.mu.Lock()
	km.buttons[button] = false
	km.buttonsUpdated = true
	km.mu.Unlock()
}

// IsMouseButtonPressed reports whether button is held down.
func (km *KeyboardMouse) IsMouseButtonPressed(button MouseButton) bool {
	if !button.valid() {
		return false
	}
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.buttons[button]
}

// WasMouseButtonPressedOnce is WasKeyPressedOnce for mouse buttons.
func (km *KeyboardMouse) WasMouseButtonPressedOnce(button MouseButton) bool {
	if !button.valid() {
		return false
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	if !km.buttons[button] || !km.buttonsUpdated {
		return false
	}
	km.buttons[button] = false
	return true
}

// SetCursorPos records the cursor position in window coordinates.
func (km *KeyboardMouse) SetCursorPos(x, y float32) {
	km.mu.Lock()
	km.cursor = glm.Vec2{x, y}
	km.mu.Unlock()
}

// CursorPos returns the last cursor position.
func (km *KeyboardMouse) CursorPos() glm.Vec2 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.cursor
}

// CursorDelta returns the movement since the previous call.
func (km *KeyboardMouse) CursorDelta() glm.Vec2 {
	km.mu.Lock()
	defer km.mu.Unlock()
	delta := km.cursor.Sub(km.previous)
	km.previous = km.cursor
	return delta
}

// SetWheel records the latest mouse wheel offset.
func (km *KeyboardMouse) SetWheel(offset float32) {
	km.mu.Lock()
	km.wheel = offset
	km.mu.Unlock()
}

// Wheel returns the latest mouse wheel offset.
func (km *KeyboardMouse) Wheel() float32 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.wheel
}
