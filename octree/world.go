// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree

import (
	"math/rand"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
)

// DefaultWorldSize is the edge length of generated worlds.
const DefaultWorldSize = 4

// RandomWorld builds an octant subdivided maxDepth+1 times. Leaves are empty,
// solid or normal with randomly picked indentations. A non-nil seed makes
// the world reproducible.
func RandomWorld(maxDepth int, size float32, position glm.Vec3, seed *int64) *Cube {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	rng := rand.New(rand.NewSource(s))

	root := NewCube(Octant, size, position)
	var populate func(parent *Cube, depth int)
	populate = func(parent *Cube, depth int) {
		for _, child := range parent.Children() {
			if depth < maxDepth {
				child.SetType(Octant)
				populate(child, depth+1)
				continue
			}
			roll := rng.Intn(101)
			switch {
			case roll < 30:
				child.SetType(Empty)
			case roll < 60:
				child.SetType(Solid)
			case roll < 100:
				child.SetType(Normal)
				var ind [Edges]Indentation
				for i := range ind {
					ind[i] = IndentationFromUID(uint8(rng.Intn(MaxUID + 1)))
				}
				child.SetIndentations(ind)
			}
		}
	}
	populate(root, 0)
	return root
}

// Seed is a helper to pass literal seeds to RandomWorld.
func Seed(v int64) *int64 { return &v }
