// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"errors"
	"fmt"
	"io"

	"github.com/devblok/koruvox/util/collada"
	glm "github.com/go-gl/mathgl/mgl32"
)

// ErrNoGeometry is returned for documents without a triangle mesh.
var ErrNoGeometry = errors.New("no geometry")

// ImportCollada reads the first geometry of a Collada document into a mesh.
func ImportCollada(r io.Reader, color ColorFunc) (*Mesh, error) {
	doc, err := collada.Decode(r)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrNoGeometry
	}

	mesh := doc.Geometries[0].Mesh
	source, err := mesh.FindSource("positions")
	if err != nil {
		return nil, err
	}
	tris := mesh.Triangles
	stride := tris.Stride()
	offset, ok := tris.Offset("VERTEX")
	if stride == 0 || !ok {
		return nil, ErrNoGeometry
	}
	if len(tris.Index)%stride != 0 {
		return nil, fmt.Errorf("triangles: %d indices for stride %d", len(tris.Index), stride)
	}
	if color == nil {
		color = SolidColor(glm.Vec3{1, 1, 0})
	}

	b := NewMeshBuilder()
	for i := 0; i < len(tris.Index); i += stride {
		pos, err := source.Vec3(tris.Index[i+offset])
		if err != nil {
			return nil, err
		}
		p := glm.Vec3(pos)
		b.Add(Vertex{Position: p, Color: color(p)})
	}
	return b.Mesh(), nil
}

// ColladaObject is imported from a collada (.dae) file.
// Loaded and held in memory
type ColladaObject struct {
	*Transform

	mesh *Mesh
}

// NewColladaObject imports r and places it at the origin.
func NewColladaObject(r io.Reader) (*ColladaObject, error) {
	mesh, err := ImportCollada(r, nil)
	if err != nil {
		return nil, err
	}
	return &ColladaObject{Transform: NewTransform(), mesh: mesh}, nil
}

// Mesh implements Object
func (co *ColladaObject) Mesh() *Mesh {
	return co.mesh
}
