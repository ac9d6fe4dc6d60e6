// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the vertex layouts and meshes fed to the renderer.
package model

import (
	"sync"
	"unsafe"

	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Mesh returns the geometry for Renderer use
	Mesh() *Mesh
}

// Vertex is an octree vertex, position and color.
type Vertex struct {
	Position glm.Vec3
	Color    glm.Vec3
}

// VertexStride is the size of a Vertex in bytes.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// UniformSize is the size of a Uniform in bytes.
const UniformSize = int(unsafe.Sizeof(Uniform{}))

// VertexAttributes describe Vertex to the render graph.
func VertexAttributes() []rendergraph.VertexAttribute {
	return []rendergraph.VertexAttribute{
		{
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// Transform is a thread-safe position and rotation pair.
type Transform struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4
}

// NewTransform returns a transform at the origin without rotation.
func NewTransform() *Transform {
	return &Transform{position: glm.Ident4(), rotation: glm.Ident4()}
}

// SetPosition implements Object
func (t *Transform) SetPosition(pos glm.Mat4) {
	t.mutex.Lock()
	t.position = pos
	t.mutex.Unlock()
}

// Position implements Object
func (t *Transform) Position() glm.Mat4 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.position
}

// SetRotation implements Object
func (t *Transform) SetRotation(rot glm.Mat4) {
	t.mutex.Lock()
	t.rotation = rot
	t.mutex.Unlock()
}

// Rotation implements Object
func (t *Transform) Rotation() glm.Mat4 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.rotation
}

// Matrix is the model matrix, rotation applied before translation.
func (t *Transform) Matrix() glm.Mat4 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.position.Mul4(t.rotation)
}
