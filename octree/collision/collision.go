// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collision answers which cube of an octree a ray hits first, and
// where on that cube it lands.
package collision

import (
	"github.com/chewxy/math32"
	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
)

// A ray passes through at most four of the eight children of an octant.
const maxChildHits = 4

type query struct {
	maxDepth int
}

// Option tunes a collision query.
type Option func(*query)

// WithMaxDepth stops descending after depth levels. Octants reached at that
// depth are reported as if they were solid.
func WithMaxDepth(depth int) Option {
	return func(q *query) {
		q.maxDepth = depth
	}
}

// RayCube finds the cube in the tree below cube that the ray from pos along
// dir hits. Normal cubes are treated as solid. The second result is false
// when nothing is hit.
func RayCube(cube *octree.Cube, pos, dir glm.Vec3, opts ...Option) (*Collision, bool) {
	q := query{maxDepth: -1}
	for _, opt := range opts {
		opt(&q)
	}
	hit := rayCube(cube, pos, dir, q.maxDepth)
	return hit, hit != nil
}

func rayCube(cube *octree.Cube, pos, dir glm.Vec3, depth int) *Collision {
	if cube.Type() == octree.Empty {
		return nil
	}

	radius := math32.Sqrt(3) * cube.Size() / 2
	if !RaySphere(pos, dir, cube.Center(), radius) {
		return nil
	}
	size := cube.Size()
	if _, ok := RayBox(pos, dir, cube.Position(), cube.Position().Add(glm.Vec3{size, size, size})); !ok {
		return nil
	}

	switch cube.Type() {
	case octree.Solid, octree.Normal:
		return newCollision(cube, pos, dir)
	case octree.Octant:
		if depth == 0 {
			return newCollision(cube, pos, dir)
		}
		next := depth
		if depth > 0 {
			next--
		}

		var nearest *Collision
		best := math32.Inf(1)
		hits := 0
		for _, child := range cube.Children() {
			if child.Type() == octree.Empty {
				continue
			}
			hit := rayCube(child, pos, dir, next)
			if hit == nil {
				continue
			}
			if d := hit.cube.Center().Sub(pos).LenSqr(); d < best {
				nearest, best = hit, d
			}
			if hits++; hits == maxChildHits {
				break
			}
		}
		return nearest
	}
	return nil
}
