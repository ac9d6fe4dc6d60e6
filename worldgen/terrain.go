// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package worldgen fills octrees with generated terrain.
package worldgen

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Terrain generates height map worlds from perlin noise.
type Terrain struct {
	// Alpha, Beta and Octaves tune the noise, see perlin.NewPerlin.
	Alpha   float64
	Beta    float64
	Octaves int32

	// Base is the average ground level and Amplitude the maximum deviation
	// from it, both as a fraction of the world size.
	Base      float64
	Amplitude float64

	// Scale stretches the noise horizontally, in noise units per world size.
	Scale float64
}

// DefaultTerrain is rolling hills around the middle of the world.
var DefaultTerrain = Terrain{
	Alpha:     2,
	Beta:      2,
	Octaves:   3,
	Base:      0.5,
	Amplitude: 0.3,
	Scale:     2,
}

// Generate builds a world of the given size with leaves depth+1 levels
// below the root. Leaves crossing the ground become normal cubes with
// their vertical edges cut to the surface; octants whose children all
// ended up the same are merged back.
func (t Terrain) Generate(depth int, size float32, position glm.Vec3, seed int64) *octree.Cube {
	noise := perlin.NewPerlin(t.Alpha, t.Beta, t.Octaves, seed)
	height := func(x, z float32) float32 {
		u := float64(x-position.X()) / float64(size) * t.Scale
		v := float64(z-position.Z()) / float64(size) * t.Scale
		h := t.Base + t.Amplitude*noise.Noise2D(u, v)
		return position.Y() + float32(h)*size
	}

	root := octree.NewCube(octree.Octant, size, position)
	var fill func(c *octree.Cube, level int)
	fill = func(c *octree.Cube, level int) {
		for _, child := range c.Children() {
			if level < depth {
				child.SetType(octree.Octant)
				fill(child, level+1)
				merge(child)
				continue
			}
			shapeLeaf(child, height)
		}
	}
	fill(root, 0)
	return root
}

// yEdges are the vertical edges of a cube keyed by the x and z bits of the
// corner they start at.
var yEdges = [4]struct {
	edge int
	x, z bool
}{
	{1, false, false},
	{4, false, true},
	{10, true, false},
	{7, true, true},
}

func shapeLeaf(c *octree.Cube, height func(x, z float32) float32) {
	lo := c.Position()
	size := c.Size()
	bottom := lo.Y()

	var ends [4]int
	below, above := 0, 0
	for i, e := range yEdges {
		x, z := lo.X(), lo.Z()
		if e.x {
			x += size
		}
		if e.z {
			z += size
		}
		h := height(x, z)
		steps := int(math.Round(float64((h - bottom) / size * octree.MaxIndentation)))
		switch {
		case steps <= 0:
			steps = 0
			above++
		case steps >= octree.MaxIndentation:
			steps = octree.MaxIndentation
			below++
		}
		ends[i] = steps
	}

	switch {
	case below == len(yEdges):
		c.SetType(octree.Solid)
	case above == len(yEdges):
		c.SetType(octree.Empty)
	default:
		c.SetType(octree.Normal)
		for i, e := range yEdges {
			c.SetIndentation(e.edge, octree.NewIndentation(0, ends[i]))
		}
	}
}

// merge collapses an octant whose children are all empty or all solid.
func merge(c *octree.Cube) {
	children := c.Children()
	if len(children) == 0 {
		return
	}
	first := children[0].Type()
	if first != octree.Empty && first != octree.Solid {
		return
	}
	for _, child := range children[1:] {
		if child.Type() != first {
			return
		}
	}
	c.SetType(first)
}
