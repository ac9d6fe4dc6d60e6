// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package collision

import (
	"github.com/chewxy/math32"
	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Face of an axis aligned cube.
type Face uint8

// Faces, named by the direction their normal points in.
const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

var faceNames = [...]string{"-x", "+x", "-y", "+y", "-z", "+z"}

func (f Face) String() string { return faceNames[f] }

var faceNormals = [...]glm.Vec3{
	FaceNegX: {-1, 0, 0},
	FacePosX: {1, 0, 0},
	FaceNegY: {0, -1, 0},
	FacePosY: {0, 1, 0},
	FaceNegZ: {0, 0, -1},
	FacePosZ: {0, 0, 1},
}

// Normal is the outward unit normal of the face.
func (f Face) Normal() glm.Vec3 { return faceNormals[f] }

// Corners are indexed like octree children.
var faceCorners = [...][4]int{
	FaceNegX: {0, 1, 2, 3},
	FacePosX: {4, 5, 6, 7},
	FaceNegY: {0, 1, 4, 5},
	FacePosY: {2, 3, 6, 7},
	FaceNegZ: {0, 2, 4, 6},
	FacePosZ: {1, 3, 5, 7},
}

// Edges are indexed like the edge indentations of an octree cube.
var faceEdges = [...][4]int{
	FaceNegX: {1, 4, 2, 11},
	FacePosX: {10, 7, 5, 8},
	FaceNegY: {0, 9, 2, 5},
	FacePosY: {3, 6, 11, 8},
	FaceNegZ: {0, 3, 1, 10},
	FacePosZ: {9, 6, 4, 7},
}

// edgeCorners holds the two corners every edge connects.
var edgeCorners = [octree.Edges][2]int{
	{0, 4}, {0, 2}, {0, 1}, {2, 6},
	{1, 3}, {4, 5}, {3, 7}, {5, 7},
	{6, 7}, {1, 5}, {4, 6}, {2, 3},
}

// Collision describes where a ray hits a cube.
type Collision struct {
	cube      *octree.Cube
	position  glm.Vec3
	direction glm.Vec3

	intersection glm.Vec3
	face         Face
	corner       int
	edge         int
}

func newCollision(cube *octree.Cube, pos, dir glm.Vec3) *Collision {
	c := &Collision{
		cube:      cube,
		position:  pos,
		direction: dir,
	}

	// The entry face is the facing plane that the ray crosses last.
	best := math32.Inf(-1)
	for f := FaceNegX; f <= FacePosZ; f++ {
		n := faceNormals[f]
		denom := dir.Dot(n)
		if denom >= 0 {
			continue
		}
		t := faceCenter(cube, f).Sub(pos).Dot(n) / denom
		if t > best {
			best = t
			c.face = f
			c.intersection = pos.Add(dir.Mul(t))
		}
	}

	nearest := math32.Inf(1)
	for _, corner := range faceCorners[c.face] {
		if d := cornerPosition(cube, corner).Sub(c.intersection).LenSqr(); d < nearest {
			nearest = d
			c.corner = corner
		}
	}

	nearest = math32.Inf(1)
	for _, edge := range faceEdges[c.face] {
		if d := edgeMidpoint(cube, edge).Sub(c.intersection).LenSqr(); d < nearest {
			nearest = d
			c.edge = edge
		}
	}
	return c
}

func faceCenter(cube *octree.Cube, f Face) glm.Vec3 {
	return cube.Center().Add(faceNormals[f].Mul(cube.Size() / 2))
}

func cornerPosition(cube *octree.Cube, corner int) glm.Vec3 {
	p := cube.Position()
	s := cube.Size()
	if corner&4 != 0 {
		p[0] += s
	}
	if corner&2 != 0 {
		p[1] += s
	}
	if corner&1 != 0 {
		p[2] += s
	}
	return p
}

func edgeMidpoint(cube *octree.Cube, edge int) glm.Vec3 {
	a := cornerPosition(cube, edgeCorners[edge][0])
	b := cornerPosition(cube, edgeCorners[edge][1])
	return a.Add(b).Mul(0.5)
}

// Cube is the cube that was hit.
func (c *Collision) Cube() *octree.Cube { return c.cube }

// Ray returns the origin and direction of the query.
func (c *Collision) Ray() (glm.Vec3, glm.Vec3) { return c.position, c.direction }

// Intersection is the point where the ray meets the selected face plane.
func (c *Collision) Intersection() glm.Vec3 { return c.intersection }

// Face is the face of the cube the ray enters through.
func (c *Collision) Face() Face { return c.face }

// FaceCenter is the midpoint of the selected face.
func (c *Collision) FaceCenter() glm.Vec3 { return faceCenter(c.cube, c.face) }

// NearestCorner returns the corner of the selected face closest to the
// intersection, as a child index and a position.
func (c *Collision) NearestCorner() (int, glm.Vec3) {
	return c.corner, cornerPosition(c.cube, c.corner)
}

// NearestEdge returns the edge of the selected face closest to the
// intersection, as an edge index usable with octree.Cube.Indent, and
// the midpoint of that edge.
func (c *Collision) NearestEdge() (int, glm.Vec3) {
	return c.edge, edgeMidpoint(c.cube, c.edge)
}

// DistanceToIntersection is the distance from the ray origin to the intersection.
func (c *Collision) DistanceToIntersection() float32 {
	return c.intersection.Sub(c.position).Len()
}
