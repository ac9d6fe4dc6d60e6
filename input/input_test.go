// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package input_test

import (
	"sync"
	"testing"

	"github.com/devblok/koruvox/input"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestKeyPressRelease(t *testing.T) {
	in := input.New()
	assert.False(t, in.IsKeyPressed(input.KeyW))

	in.PressKey(input.KeyW)
	assert.True(t, in.IsKeyPressed(input.KeyW))
	assert.False(t, in.IsKeyPressed(input.KeyA))

	in.ReleaseKey(input.KeyW)
	assert.False(t, in.IsKeyPressed(input.KeyW))
}

func TestWasKeyPressedOnce(t *testing.T) {
	in := input.New()
	assert.False(t, in.WasKeyPressedOnce(input.KeyN))

	in.PressKey(input.KeyN)
	assert.True(t, in.WasKeyPressedOnce(input.KeyN))
	assert.False(t, in.WasKeyPressedOnce(input.KeyN), "second read of one press")
	assert.False(t, in.IsKeyPressed(input.KeyN))

	in.PressKey(input.KeyN)
	assert.True(t, in.WasKeyPressedOnce(input.KeyN))
}

func TestInvalidKeysAreIgnored(t *testing.T) {
	in := input.New()
	in.PressKey(input.KeyUnknown)
	in.PressKey(input.KeyCount)
	in.PressKey(input.Key(-3))
	assert.False(t, in.IsKeyPressed(input.KeyUnknown))
	assert.False(t, in.IsKeyPressed(input.KeyCount))
	assert.False(t, in.WasKeyPressedOnce(input.Key(-3)))
}

func TestMouseButtons(t *testing.T) {
	in := input.New()
	in.PressMouseButton(input.MouseLeft)
	assert.True(t, in.IsMouseButtonPressed(input.MouseLeft))
	assert.False(t, in.IsMouseButtonPressed(input.MouseRight))

	assert.True(t, in.WasMouseButtonPressedOnce(input.MouseLeft))
	assert.False(t, in.WasMouseButtonPressedOnce(input.MouseLeft))

	in.PressMouseButton(input.MouseRight)
	in.ReleaseMouseButton(input.MouseRight)
	assert.False(t, in.WasMouseButtonPressedOnce(input.MouseRight))
}

func TestCursorDelta(t *testing.T) {
	in := input.New()
	in.SetCursorPos(10, 20)
	assert.Equal(t, glm.Vec2{10, 20}, in.CursorPos())
	assert.Equal(t, glm.Vec2{10, 20}, in.CursorDelta())
	assert.Equal(t, glm.Vec2{}, in.CursorDelta())

	in.SetCursorPos(15, 5)
	assert.Equal(t, glm.Vec2{5, -15}, in.CursorDelta())
}

func TestWheel(t *testing.T) {
	in := input.New()
	in.SetWheel(-1.5)
	assert.Equal(t, float32(-1.5), in.Wheel())
}

func TestGamepad(t *testing.T) {
	in := input.New()
	pad := &in.Gamepad

	pad.SetAxis(0, 0, 0.5)
	pad.SetAxis(0, 1, 2)
	assert.Equal(t, glm.Vec2{0.5, 1}, pad.Axis(0))
	assert.Equal(t, glm.Vec2{0, 1}, pad.AxisDelta(0))
	assert.Equal(t, glm.Vec2{}, pad.Axis(1))
	assert.Equal(t, glm.Vec2{}, pad.Axis(5))

	pad.PressButton(3)
	assert.True(t, pad.IsButtonPressed(3))
	assert.True(t, pad.WasButtonPressedOnce(3))
	assert.False(t, pad.WasButtonPressedOnce(3))

	pad.PressButton(input.GamepadButtons)
	assert.False(t, pad.IsButtonPressed(input.GamepadButtons))
}

func TestConcurrentAccess(t *testing.T) {
	in := input.New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				in.PressKey(input.KeyW)
				in.SetCursorPos(float32(i), float32(j))
				in.ReleaseKey(input.KeyW)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				in.IsKeyPressed(input.KeyW)
				in.CursorDelta()
			}
		}()
	}
	wg.Wait()
	in.ReleaseKey(input.KeyW)
	assert.False(t, in.IsKeyPressed(input.KeyW))
}
