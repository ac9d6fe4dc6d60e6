// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"math/rand"

	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// ColorFunc picks the color of a vertex.
type ColorFunc func(position glm.Vec3) glm.Vec3

// RandomColors colors every vertex from a seeded source.
func RandomColors(seed int64) ColorFunc {
	rnd := rand.New(rand.NewSource(seed))
	return func(glm.Vec3) glm.Vec3 {
		return glm.Vec3{rnd.Float32(), rnd.Float32(), rnd.Float32()}
	}
}

// HeightColors blends from low to high color by height within [bottom, top].
func HeightColors(bottom, top float32, low, high glm.Vec3) ColorFunc {
	span := top - bottom
	return func(p glm.Vec3) glm.Vec3 {
		if span <= 0 {
			return low
		}
		f := glm.Clamp((p.Y()-bottom)/span, 0, 1)
		return low.Mul(1 - f).Add(high.Mul(f))
	}
}

// SolidColor colors every vertex the same.
func SolidColor(color glm.Vec3) ColorFunc {
	return func(glm.Vec3) glm.Vec3 { return color }
}

// MeshBuilder accumulates vertices, sharing equal ones.
type MeshBuilder struct {
	mesh  Mesh
	index map[Vertex]uint32
}

// NewMeshBuilder returns an empty builder.
func NewMeshBuilder() *MeshBuilder {
	return &MeshBuilder{index: make(map[Vertex]uint32)}
}

// Add appends one vertex, reusing the index of an equal vertex.
func (b *MeshBuilder) Add(v Vertex) {
	idx, ok := b.index[v]
	if !ok {
		idx = uint32(len(b.mesh.Vertices))
		b.index[v] = idx
		b.mesh.Vertices = append(b.mesh.Vertices, v)
	}
	b.mesh.Indices = append(b.mesh.Indices, idx)
}

// Mesh returns the accumulated mesh.
func (b *MeshBuilder) Mesh() *Mesh {
	m := b.mesh
	return &m
}

// BuildMesh turns triangles into an indexed mesh.
func BuildMesh(triangles []octree.Polygon, color ColorFunc) *Mesh {
	if color == nil {
		color = SolidColor(glm.Vec3{1, 1, 1})
	}
	b := NewMeshBuilder()
	for _, tri := range triangles {
		for _, p := range tri {
			b.Add(Vertex{Position: p, Color: color(p)})
		}
	}
	return b.Mesh()
}

// OctreeMesh builds the mesh of every cube in the tree, refreshing stale caches.
func OctreeMesh(root *octree.Cube, color ColorFunc) *Mesh {
	return BuildMesh(root.Triangles(true), color)
}

// Triangles is the number of triangles in the mesh.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Bounds returns the axis aligned box around all vertices.
func (m *Mesh) Bounds() (lo, hi glm.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0].Position, m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	return
}
