// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree_test

import (
	"testing"

	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

var axes = []octree.Axis{octree.AxisX, octree.AxisY, octree.AxisZ}

func TestRotationGroup(t *testing.T) {
	for _, axis := range axes {
		world := octree.RandomWorld(2, 4, glm.Vec3{}, octree.Seed(11))
		original := world.Clone()
		for i := 0; i < 4; i++ {
			world.Rotate(axis, 1)
		}
		assert.True(t, world.Equal(original), "axis %v", axis)
	}
}

func TestRotationComposition(t *testing.T) {
	for _, axis := range axes {
		for k := -5; k <= 5; k++ {
			once := octree.RandomWorld(1, 4, glm.Vec3{}, octree.Seed(3))
			stepped := once.Clone()

			once.Rotate(axis, k)
			for i := 0; i < ((k%4)+4)%4; i++ {
				stepped.Rotate(axis, 1)
			}
			assert.True(t, once.Equal(stepped), "axis %v, k %d", axis, k)
		}
	}
}

func TestRotateNormalMovesAndMirrors(t *testing.T) {
	c := octree.NewCube(octree.Normal, 1, glm.Vec3{})
	c.SetIndentation(2, octree.NewIndentation(2, 8))
	c.SetIndentation(0, octree.NewIndentation(1, 8))

	c.Rotate(octree.AxisX, 1)
	ind := c.Indentations()

	// Edge 2 moved to edge 1 and changed direction.
	assert.Equal(t, octree.NewIndentation(0, 6), ind[1])
	assert.Equal(t, octree.DefaultIndentation(), ind[2])
	// Edges parallel to the axis keep their direction.
	assert.Equal(t, octree.NewIndentation(1, 8), ind[3])
	assert.False(t, c.CacheValid())
}

func TestRotateHalfTurnMirrorsEverything(t *testing.T) {
	c := octree.NewCube(octree.Normal, 1, glm.Vec3{})
	c.SetIndentation(1, octree.NewIndentation(3, 8))

	c.Rotate(octree.AxisX, 2)
	assert.Equal(t, octree.NewIndentation(0, 5), c.Indentations()[4])
}

func TestRotateOctantMovesChildren(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	root.Child(1).SetType(octree.Solid)
	root.Child(5).SetType(octree.Normal)
	root.Child(5).Indent(2, true, 4)

	root.Rotate(octree.AxisX, 1)

	assert.Equal(t, octree.Solid, root.Child(0).Type())
	assert.Equal(t, octree.Normal, root.Child(4).Type())
	assert.Equal(t, octree.Empty, root.Child(1).Type())
	for i, child := range root.Children() {
		assert.Equal(t, uint8(i), child.Index())
		assert.Same(t, root, child.Parent())
	}
	assert.Equal(t, glm.Vec3{0, 0, 0}, root.Child(0).Position())
	assert.Equal(t, glm.Vec3{1, 0, 0}, root.Child(4).Position())
	// The child was rotated as well.
	assert.Equal(t, octree.NewIndentation(0, 4), root.Child(4).Indentations()[1])
}

func TestRotateSolidIsNoop(t *testing.T) {
	c := octree.NewCube(octree.Solid, 1, glm.Vec3{})
	c.UpdatePolygonCache()
	c.Rotate(octree.AxisY, 1)
	assert.Equal(t, octree.Solid, c.Type())
	assert.True(t, c.CacheValid())
}
