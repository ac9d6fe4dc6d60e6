// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/chewxy/math32"
	glm "github.com/go-gl/mathgl/mgl32"
)

const maxPitch = 89.0

// Camera is a first person camera with yaw and pitch in degrees.
type Camera struct {
	position glm.Vec3
	yaw      float32
	pitch    float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	// Speed is in world units per second.
	Speed float32

	// Sensitivity is in degrees per pixel of cursor movement.
	Sensitivity float32
}

// NewCamera creates a camera at position looking along yaw/pitch.
func NewCamera(position glm.Vec3, yaw, pitch, aspect float32) *Camera {
	c := &Camera{
		position:    position,
		yaw:         yaw,
		fov:         60,
		aspect:      aspect,
		near:        0.01,
		far:         100,
		Speed:       2,
		Sensitivity: 0.1,
	}
	c.SetPitch(pitch)
	return c
}

// Position returns the camera position
func (c *Camera) Position() glm.Vec3 { return c.position }

// SetPosition moves the camera to p
func (c *Camera) SetPosition(p glm.Vec3) { c.position = p }

// Yaw returns the yaw in degrees
func (c *Camera) Yaw() float32 { return c.yaw }

// Pitch returns the pitch in degrees
func (c *Camera) Pitch() float32 { return c.pitch }

// SetPitch sets the pitch, clamped short of straight up or down.
func (c *Camera) SetPitch(pitch float32) {
	c.pitch = glm.Clamp(pitch, -maxPitch, maxPitch)
}

// SetAspect updates the aspect ratio after a resize.
func (c *Camera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.aspect = aspect
	}
}

// Front is the unit view direction.
func (c *Camera) Front() glm.Vec3 {
	yaw, pitch := glm.DegToRad(c.yaw), glm.DegToRad(c.pitch)
	return glm.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
}

// Right is the unit vector to the right of the view direction.
func (c *Camera) Right() glm.Vec3 {
	return c.Front().Cross(glm.Vec3{0, 1, 0}).Normalize()
}

// Rotate turns the camera by cursor movement in pixels.
func (c *Camera) Rotate(dx, dy float32) {
	c.yaw += dx * c.Sensitivity
	c.SetPitch(c.pitch - dy*c.Sensitivity)
}

// Move translates the camera along its axes, scaled by seconds.
func (c *Camera) Move(forward, right, up, seconds float32) {
	step := c.Speed * seconds
	c.position = c.position.
		Add(c.Front().Mul(forward * step)).
		Add(c.Right().Mul(right * step)).
		Add(glm.Vec3{0, 1, 0}.Mul(up * step))
}

// View is the world to camera matrix.
func (c *Camera) View() glm.Mat4 {
	return glm.LookAtV(c.position, c.position.Add(c.Front()), glm.Vec3{0, 1, 0})
}

// Projection is a perspective matrix for Vulkan clip space, with y
// pointing down.
func (c *Camera) Projection() glm.Mat4 {
	proj := glm.Perspective(glm.DegToRad(c.fov), c.aspect, c.near, c.far)
	proj[5] *= -1
	return proj
}
