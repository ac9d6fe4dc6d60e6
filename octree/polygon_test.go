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
	"github.com/stretchr/testify/require"
)

func sharedEdge(a, b octree.Polygon) []glm.Vec3 {
	var shared []glm.Vec3
	for _, u := range a {
		for _, v := range b {
			if u == v {
				shared = append(shared, u)
			}
		}
	}
	return shared
}

func TestSolidPolygons(t *testing.T) {
	c := octree.NewCube(octree.Solid, 1, glm.Vec3{})
	caches := c.Polygons(true)
	require.Len(t, caches, 1)
	assert.Len(t, caches[0], 12)
	assert.True(t, c.CacheValid())
}

func TestIndentedFaceKeepsDefaultDiagonal(t *testing.T) {
	c := octree.NewCube(octree.Normal, 1, glm.Vec3{})
	c.Indent(0, true, 3)

	caches := c.Polygons(true)
	require.Len(t, caches, 1)
	require.Len(t, caches[0], 12)

	v := c.Vertices()
	assert.Equal(t, glm.Vec3{3.0 / 8, 0, 0}, v[0])
	assert.ElementsMatch(t, []glm.Vec3{v[1], v[2]}, sharedEdge(caches[0][0], caches[0][1]))
}

func TestIndentedFaceFlipsDiagonal(t *testing.T) {
	c := octree.NewCube(octree.Normal, 1, glm.Vec3{})
	c.Indent(9, true, 3)

	p := c.Triangles(true)
	require.Len(t, p, 12)

	v := c.Vertices()
	assert.ElementsMatch(t, []glm.Vec3{v[0], v[3]}, sharedEdge(p[0], p[1]))
}

func TestEmptyAndOctantHaveNoPolygons(t *testing.T) {
	assert.Empty(t, octree.NewCube(octree.Empty, 1, glm.Vec3{}).Polygons(true))
	assert.Empty(t, octree.NewCube(octree.Octant, 1, glm.Vec3{}).Polygons(true))
}

func TestPolygonsPostOrder(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	root.Child(1).SetType(octree.Solid)
	root.Child(6).SetType(octree.Solid)

	caches := root.Polygons(true)
	require.Len(t, caches, 2)
	assert.Equal(t, root.Child(1).Position(), caches[0][0][0])
	assert.Equal(t, root.Child(6).Position(), caches[1][0][0])
}

func TestPolygonCacheInvalidation(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	for _, child := range root.Children() {
		child.SetType(octree.Normal)
	}
	require.Len(t, root.Polygons(true), 8)

	touched := root.Child(3)
	before := touched.PolygonCache()
	touched.Indent(5, false, 4)
	assert.False(t, touched.CacheValid())
	assert.Len(t, root.Polygons(false), 7)

	root.Child(4).Rotate(octree.AxisY, 1)
	assert.Len(t, root.Polygons(false), 6)

	root.Child(5).SetType(octree.Solid)
	assert.Len(t, root.Polygons(false), 5)

	assert.Len(t, root.Polygons(true), 8)
	assert.NotEqual(t, before, touched.PolygonCache())
	assert.Len(t, before, 12, "earlier readers keep their snapshot")
}

func TestRotatedOctantMovesCachedGeometry(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	root.Child(1).SetType(octree.Solid)
	require.Len(t, root.Polygons(true), 1)

	root.Rotate(octree.AxisX, 1)
	assert.Empty(t, root.Polygons(false))

	caches := root.Polygons(true)
	require.Len(t, caches, 1)
	assert.Equal(t, glm.Vec3{0, 0, 0}, caches[0][0][0])
}
