// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseAll releases every non-nil item in reverse order.
func ReleaseAll(items ...Releasable) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] != nil {
			items[i].Release()
		}
	}
}

// Extent2D is the size of a surface in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Empty reports whether the extent has no area, as with minimized windows.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Aspect is the width to height ratio.
func (e Extent2D) Aspect() float32 {
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

// Extent3D is the size of a volume, images use a depth of 1.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Resource describes a loaded resource that can be uniquely identified.
type Resource interface {
	Releasable

	// ID returns a resource id that uniquely identifies it.
	ID() string
}

// Loader describes a resource loader mechanism.
type Loader interface {

	// Load tries to find and load the resource
	// asociated with the provided id.
	Load(id string) (Resource, error)
}
