// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package collision

import (
	"github.com/chewxy/math32"
	glm "github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

// RaySphere reports whether the ray starting at pos hits the sphere in
// front of its origin. dir does not need to be normalized.
func RaySphere(pos, dir, center glm.Vec3, radius float32) bool {
	if dir.LenSqr() == 0 {
		return false
	}
	dir = dir.Normalize()

	diff := center.Sub(pos)
	t0 := diff.Dot(dir)
	dSquared := diff.Dot(diff) - t0*t0
	radius2 := radius * radius
	if dSquared > radius2 {
		return false
	}
	t1 := math32.Sqrt(radius2 - dSquared)
	distance := t0 + t1
	if t0 > t1+epsilon {
		distance = t0 - t1
	}
	return distance > epsilon
}

// RayBox intersects a ray with an axis aligned box using the slab method.
// It returns the parameter along dir at which the ray enters the box, which
// is negative when pos lies inside. Boxes behind the ray are missed.
func RayBox(pos, dir, boxMin, boxMax glm.Vec3) (float32, bool) {
	bounds := [2]glm.Vec3{boxMin, boxMax}
	tNear := math32.Inf(-1)
	tFar := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if pos[axis] < boxMin[axis] || pos[axis] > boxMax[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[axis]
		sign := 0
		if inv < 0 {
			sign = 1
		}
		lo := (bounds[sign][axis] - pos[axis]) * inv
		hi := (bounds[1-sign][axis] - pos[axis]) * inv
		if lo > tFar || tNear > hi {
			return 0, false
		}
		if lo > tNear {
			tNear = lo
		}
		if hi < tFar {
			tFar = hi
		}
	}
	if tFar < 0 {
		return 0, false
	}
	return tNear, true
}
