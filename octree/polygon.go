// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Polygon is a triangle in world space.
type Polygon [3]glm.Vec3

// invalidate drops the polygon cache. Slices handed out earlier stay intact,
// a cache is never modified after it was built.
func (c *Cube) invalidate() {
	c.polygons = nil
	c.valid = false
}

// CacheValid reports whether the polygon cache reflects the current state.
func (c *Cube) CacheValid() bool { return c.valid }

// PolygonCache returns the cached triangles without rebuilding them.
func (c *Cube) PolygonCache() []Polygon { return c.polygons }

// Vertices returns the eight corners of a solid or normal cube, ordered
// like child indices. Normal cubes move each corner inwards along its three
// edges. Other types have no vertices.
func (c *Cube) Vertices() [Corners]glm.Vec3 {
	pos := c.position
	far := pos.Add(glm.Vec3{c.size, c.size, c.size})

	switch b := c.body.(type) {
	case solidBody:
		return [Corners]glm.Vec3{
			{pos.X(), pos.Y(), pos.Z()},
			{pos.X(), pos.Y(), far.Z()},
			{pos.X(), far.Y(), pos.Z()},
			{pos.X(), far.Y(), far.Z()},
			{far.X(), pos.Y(), pos.Z()},
			{far.X(), pos.Y(), far.Z()},
			{far.X(), far.Y(), pos.Z()},
			{far.X(), far.Y(), far.Z()},
		}
	case *normalBody:
		step := c.size / MaxIndentation
		ind := &b.indentations
		lo := func(base float32, edge int) float32 { return base + float32(ind[edge].Start())*step }
		hi := func(base float32, edge int) float32 { return base - float32(ind[edge].End())*step }
		return [Corners]glm.Vec3{
			{lo(pos.X(), 0), lo(pos.Y(), 1), lo(pos.Z(), 2)},
			{lo(pos.X(), 9), lo(pos.Y(), 4), hi(far.Z(), 2)},
			{lo(pos.X(), 3), hi(far.Y(), 1), lo(pos.Z(), 11)},
			{lo(pos.X(), 6), hi(far.Y(), 4), hi(far.Z(), 11)},
			{hi(far.X(), 0), lo(pos.Y(), 10), lo(pos.Z(), 5)},
			{hi(far.X(), 9), lo(pos.Y(), 7), hi(far.Z(), 5)},
			{hi(far.X(), 3), hi(far.Y(), 10), lo(pos.Z(), 8)},
			{hi(far.X(), 6), hi(far.Y(), 7), hi(far.Z(), 8)},
		}
	}
	return [Corners]glm.Vec3{}
}

// UpdatePolygonCache rebuilds the triangles of the cube. Solid and normal
// cubes get two triangles per face, empty cubes and octants none.
func (c *Cube) UpdatePolygonCache() {
	switch b := c.body.(type) {
	case emptyBody, *octantBody:
		c.polygons = nil
	case solidBody:
		c.polygons = boxPolygons(c.Vertices())
	case *normalBody:
		c.polygons = indentedPolygons(c.Vertices(), &b.indentations)
	default:
		panic(fmt.Sprintf("octree: unknown cube body %T", b))
	}
	c.valid = true
}

func boxPolygons(v [Corners]glm.Vec3) []Polygon {
	return []Polygon{
		{v[0], v[2], v[1]}, // x = 0
		{v[1], v[2], v[3]},
		{v[4], v[5], v[6]}, // x = 1
		{v[5], v[7], v[6]},
		{v[0], v[1], v[4]}, // y = 0
		{v[1], v[5], v[4]},
		{v[2], v[6], v[3]}, // y = 1
		{v[3], v[6], v[7]},
		{v[0], v[4], v[2]}, // z = 0
		{v[2], v[4], v[6]},
		{v[1], v[3], v[5]}, // z = 1
		{v[3], v[7], v[5]},
	}
}

// indentedPolygons splits every face along the diagonal that keeps it convex.
func indentedPolygons(v [Corners]glm.Vec3, ind *[Edges]Indentation) []Polygon {
	p := boxPolygons(v)
	start := func(a, b int) int { return int(ind[a].Start()) + int(ind[b].Start()) }
	end := func(a, b int) int { return int(ind[a].End()) + int(ind[b].End()) }

	if start(0, 6) < start(9, 3) {
		p[0], p[1] = Polygon{v[0], v[2], v[3]}, Polygon{v[0], v[3], v[1]}
	}
	if end(0, 6) < end(9, 3) {
		p[2], p[3] = Polygon{v[4], v[7], v[6]}, Polygon{v[4], v[5], v[7]}
	}
	if start(1, 7) < start(4, 10) {
		p[4], p[5] = Polygon{v[0], v[1], v[5]}, Polygon{v[0], v[5], v[4]}
	}
	if end(1, 7) < end(4, 10) {
		p[6], p[7] = Polygon{v[2], v[7], v[3]}, Polygon{v[2], v[6], v[7]}
	}
	if start(2, 8) < start(11, 5) {
		p[8], p[9] = Polygon{v[0], v[4], v[6]}, Polygon{v[0], v[6], v[2]}
	}
	if end(2, 8) < end(11, 5) {
		p[10], p[11] = Polygon{v[1], v[3], v[7]}, Polygon{v[1], v[7], v[5]}
	}
	return p
}

// Polygons collects the polygon caches of all cubes in post-order. Invalid
// caches are rebuilt when updateInvalid is set, otherwise cubes touched
// since their last build contribute nothing.
func (c *Cube) Polygons(updateInvalid bool) [][]Polygon {
	var out [][]Polygon
	var collect func(*Cube)
	collect = func(cube *Cube) {
		if b, ok := cube.body.(*octantBody); ok {
			for _, child := range b.children {
				collect(child)
			}
			return
		}
		if !cube.valid && updateInvalid {
			cube.UpdatePolygonCache()
		}
		if cube.polygons != nil {
			out = append(out, cube.polygons)
		}
	}
	collect(c)
	return out
}

// Triangles flattens the polygons of the tree into a single list.
func (c *Cube) Triangles(updateInvalid bool) []Polygon {
	var out []Polygon
	for _, cache := range c.Polygons(updateInvalid) {
		out = append(out, cache...)
	}
	return out
}
