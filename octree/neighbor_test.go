// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree_test

import (
	"runtime"
	"testing"

	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// subdivided builds a tree where every cube down to depth is an octant.
func subdivided(depth int) *octree.Cube {
	root := octree.NewCube(octree.Octant, 8, glm.Vec3{})
	var split func(*octree.Cube, int)
	split = func(c *octree.Cube, level int) {
		if level == depth {
			return
		}
		for _, child := range c.Children() {
			child.SetType(octree.Octant)
			split(child, level+1)
		}
	}
	split(root, 1)
	return root
}

func leaves(root *octree.Cube) []*octree.Cube {
	var out []*octree.Cube
	root.Walk(func(c *octree.Cube) bool {
		if c.Type() != octree.Octant {
			out = append(out, c)
		}
		return true
	})
	return out
}

func axisIndex(axis octree.Axis) int {
	switch axis {
	case octree.AxisX:
		return 0
	case octree.AxisY:
		return 1
	}
	return 2
}

func TestNeighborOfRoot(t *testing.T) {
	root := octree.NewCube(octree.Octant, 1, glm.Vec3{})
	assert.Nil(t, root.Neighbor(octree.AxisX, octree.Positive))
}

func TestNeighborSibling(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	assert.Same(t, root.Child(4), root.Child(0).Neighbor(octree.AxisX, octree.Positive))
	assert.Same(t, root.Child(2), root.Child(0).Neighbor(octree.AxisY, octree.Positive))
	assert.Same(t, root.Child(1), root.Child(0).Neighbor(octree.AxisZ, octree.Positive))
	assert.Nil(t, root.Child(0).Neighbor(octree.AxisX, octree.Negative))
	assert.Nil(t, root.Child(4).Neighbor(octree.AxisX, octree.Positive))
}

func TestNeighborMatchesGeometry(t *testing.T) {
	root := subdivided(3)
	all := leaves(root)
	at := make(map[glm.Vec3]*octree.Cube, len(all))
	for _, c := range all {
		at[c.Position()] = c
	}

	for _, c := range all {
		for _, axis := range axes {
			for _, dir := range []octree.Direction{octree.Negative, octree.Positive} {
				pos := c.Position()
				pos[axisIndex(axis)] += float32(dir) * c.Size()
				expected := at[pos]

				got := c.Neighbor(axis, dir)
				if expected == nil {
					assert.Nil(t, got, "cube %v axis %v dir %d", c, axis, dir)
				} else {
					assert.Same(t, expected, got, "cube %v axis %v dir %d", c, axis, dir)
				}
			}
		}
	}
	runtime.KeepAlive(root)
}

func TestNeighborSymmetry(t *testing.T) {
	root := subdivided(3)
	for _, a := range leaves(root) {
		for _, axis := range axes {
			if b := a.Neighbor(axis, octree.Positive); b != nil {
				assert.Same(t, a, b.Neighbor(axis, octree.Negative))
			}
		}
	}
	runtime.KeepAlive(root)
}

func TestNeighborLarger(t *testing.T) {
	root := octree.NewCube(octree.Octant, 4, glm.Vec3{})
	root.Child(0).SetType(octree.Octant)
	small := root.Child(0).Child(6)

	// The +x half of the root is not subdivided.
	assert.Same(t, root.Child(4), small.Neighbor(octree.AxisX, octree.Positive))
	assert.Same(t, root.Child(0).Child(2), small.Neighbor(octree.AxisX, octree.Negative))
	assert.Same(t, root.Child(2), small.Neighbor(octree.AxisY, octree.Positive))
	runtime.KeepAlive(root)
}
