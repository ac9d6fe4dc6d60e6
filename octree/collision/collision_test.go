// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package collision_test

import (
	"runtime"
	"testing"

	"github.com/devblok/koruvox/octree"
	"github.com/devblok/koruvox/octree/collision"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-4

func TestRayBox(t *testing.T) {
	lo, hi := glm.Vec3{0, 0, 0}, glm.Vec3{1, 1, 1}

	tNear, ok := collision.RayBox(glm.Vec3{2, 0.5, 0.5}, glm.Vec3{-1, 0, 0}, lo, hi)
	assert.True(t, ok)
	assert.InDelta(t, 1, tNear, tolerance)

	_, ok = collision.RayBox(glm.Vec3{2, 1.5, 0.5}, glm.Vec3{-1, 0, 0}, lo, hi)
	assert.False(t, ok)

	_, ok = collision.RayBox(glm.Vec3{2, 0.5, 0.5}, glm.Vec3{1, 0, 0}, lo, hi)
	assert.False(t, ok, "box behind the ray")

	tNear, ok = collision.RayBox(glm.Vec3{0.5, 0.5, 0.5}, glm.Vec3{0, 1, 0}, lo, hi)
	assert.True(t, ok, "origin inside the box")
	assert.Less(t, tNear, float32(0))

	_, ok = collision.RayBox(glm.Vec3{-1, -1, -1}, glm.Vec3{1, 1, 1}, lo, hi)
	assert.True(t, ok)
}

func TestRaySphere(t *testing.T) {
	center := glm.Vec3{0.5, 0.5, 0.5}
	assert.True(t, collision.RaySphere(glm.Vec3{2, 0.5, 0.5}, glm.Vec3{-3, 0, 0}, center, 0.87))
	assert.False(t, collision.RaySphere(glm.Vec3{2, 1.5, 0.5}, glm.Vec3{-1, 0, 0}, center, 0.87))
	assert.False(t, collision.RaySphere(glm.Vec3{2, 0.5, 0.5}, glm.Vec3{1, 0, 0}, center, 0.87))
}

func TestRayUnitCube(t *testing.T) {
	cube := octree.NewCube(octree.Solid, 1, glm.Vec3{})

	hit, ok := collision.RayCube(cube, glm.Vec3{2, 0.5, 0.5}, glm.Vec3{-1, 0, 0})
	require.True(t, ok)
	assert.Same(t, cube, hit.Cube())
	assert.Equal(t, collision.FacePosX, hit.Face())
	assert.InDelta(t, 1, hit.Intersection().X(), tolerance)
	assert.InDelta(t, 1, hit.DistanceToIntersection(), tolerance)

	_, ok = collision.RayCube(cube, glm.Vec3{2, 1.5, 0.5}, glm.Vec3{-1, 0, 0})
	assert.False(t, ok)
}

func TestRayEmptyCube(t *testing.T) {
	cube := octree.NewCube(octree.Empty, 1, glm.Vec3{})
	_, ok := collision.RayCube(cube, glm.Vec3{2, 0.5, 0.5}, glm.Vec3{-1, 0, 0})
	assert.False(t, ok)
}

func TestNearestCornerAndEdge(t *testing.T) {
	cube := octree.NewCube(octree.Normal, 1, glm.Vec3{})

	hit, ok := collision.RayCube(cube, glm.Vec3{0.9, 3, 0.2}, glm.Vec3{0, -1, 0})
	require.True(t, ok)
	assert.Equal(t, collision.FacePosY, hit.Face())

	corner, pos := hit.NearestCorner()
	assert.Equal(t, 6, corner)
	assert.Equal(t, glm.Vec3{1, 1, 0}, pos)

	edge, mid := hit.NearestEdge()
	assert.Equal(t, 8, edge)
	assert.Equal(t, glm.Vec3{1, 1, 0.5}, mid)
	assert.Equal(t, glm.Vec3{0.5, 1, 0.5}, hit.FaceCenter())
}

func TestMaxDepthStopsAtOctant(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	root.Child(4).SetType(octree.Solid)

	hit, ok := collision.RayCube(root, glm.Vec3{5, 0.5, 0.5}, glm.Vec3{-1, 0, 0}, collision.WithMaxDepth(0))
	require.True(t, ok)
	assert.Same(t, root, hit.Cube())

	hit, ok = collision.RayCube(root, glm.Vec3{5, 0.5, 0.5}, glm.Vec3{-1, 0, 0})
	require.True(t, ok)
	assert.Same(t, root.Child(4), hit.Cube())
}

func TestNearestChildWins(t *testing.T) {
	root := octree.NewCube(octree.Octant, 2, glm.Vec3{})
	root.Child(0).SetType(octree.Solid)
	root.Child(4).SetType(octree.Solid)

	hit, ok := collision.RayCube(root, glm.Vec3{-3, 0.5, 0.5}, glm.Vec3{1, 0, 0})
	require.True(t, ok)
	assert.Same(t, root.Child(0), hit.Cube())
	assert.Equal(t, collision.FaceNegX, hit.Face())

	hit, ok = collision.RayCube(root, glm.Vec3{5, 0.5, 0.5}, glm.Vec3{-1, 0, 0})
	require.True(t, ok)
	assert.Same(t, root.Child(4), hit.Cube())
}

func TestCameraRayIntoWorld(t *testing.T) {
	world := octree.RandomWorld(1, 4, glm.Vec3{4, 0, 0}, octree.Seed(42))
	// Make sure the bottom layer is solid so the column under the camera is never empty.
	world.Walk(func(c *octree.Cube) bool {
		if c.Type() != octree.Octant && c.Position().Y() == 0 {
			c.SetType(octree.Solid)
		}
		return true
	})

	pos, dir := glm.Vec3{6, 10, 2}, glm.Vec3{0, -1, 0}
	hit, ok := collision.RayCube(world, pos, dir)
	require.True(t, ok)

	cube := hit.Cube()
	assert.NotEqual(t, octree.Octant, cube.Type())
	assert.NotEqual(t, octree.Empty, cube.Type())

	p := hit.Intersection()
	lo := cube.Position()
	size := cube.Size()
	hi := lo.Add(glm.Vec3{size, size, size})

	onPlane := false
	for axis := 0; axis < 3; axis++ {
		if abs(p[axis]-lo[axis]) < tolerance || abs(p[axis]-hi[axis]) < tolerance {
			onPlane = true
		}
	}
	assert.True(t, onPlane, "intersection %v is not on a face of %v", p, cube)
	for axis := 0; axis < 3; axis++ {
		assert.GreaterOrEqual(t, p[axis], lo[axis]-tolerance)
		assert.LessOrEqual(t, p[axis], hi[axis]+tolerance)
	}
	assert.Equal(t, collision.FacePosY, hit.Face())
	runtime.KeepAlive(world)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
