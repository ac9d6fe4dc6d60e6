// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package octree is the voxel world model. A world is a tree of cubes where
// every octant owns eight half sized children and the leaves are either
// empty, solid or solid with indented edges.
package octree

import (
	"fmt"
	"weak"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Cube geometry constants.
const (
	Edges    = 12
	SubCubes = 8
	Corners  = 8
)

// Type is the kind of content a cube holds. The numeric values
// are stored as type tags in serialized octrees.
type Type uint8

// Cube types.
const (
	Empty Type = iota
	Solid
	Normal
	Octant
)

func (t Type) String() string {
	switch t {
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case Normal:
		return "normal"
	case Octant:
		return "octant"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// body is the content of a cube, only the variants below implement it.
type body interface {
	cubeType() Type
}

type emptyBody struct{}

type solidBody struct{}

type normalBody struct {
	indentations [Edges]Indentation
}

type octantBody struct {
	children [SubCubes]*Cube
}

func (emptyBody) cubeType() Type   { return Empty }
func (solidBody) cubeType() Type   { return Solid }
func (*normalBody) cubeType() Type { return Normal }
func (*octantBody) cubeType() Type { return Octant }

// Cube is one node of an octree. Children keep a weak reference to their
// parent, so a subtree never keeps its root alive.
type Cube struct {
	size     float32
	position glm.Vec3

	parent weak.Pointer[Cube]
	index  uint8

	body body

	polygons []Polygon
	valid    bool
}

// NewCube creates a root cube of the given type. position is the minimum corner.
func NewCube(t Type, size float32, position glm.Vec3) *Cube {
	c := &Cube{
		size:     size,
		position: position,
		body:     emptyBody{},
	}
	c.SetType(t)
	return c
}

func newChild(parent *Cube, index uint8) *Cube {
	half := parent.size / 2
	return &Cube{
		size:     half,
		position: parent.position.Add(childOffset(index, half)),
		parent:   weak.Make(parent),
		index:    index,
		body:     emptyBody{},
	}
}

// childOffset is the position of child index relative to its parent.
// Bit 2 of index selects x, bit 1 selects y and bit 0 selects z.
func childOffset(index uint8, half float32) glm.Vec3 {
	var offset glm.Vec3
	if index&4 != 0 {
		offset[0] = half
	}
	if index&2 != 0 {
		offset[1] = half
	}
	if index&1 != 0 {
		offset[2] = half
	}
	return offset
}

// Type returns the kind of the cube.
func (c *Cube) Type() Type {
	switch b := c.body.(type) {
	case emptyBody, solidBody, *normalBody, *octantBody:
		return b.cubeType()
	default:
		panic(fmt.Sprintf("octree: unknown cube body %T", b))
	}
}

// SetType changes the kind of the cube. Becoming an octant creates eight
// empty children, leaving the octant state drops all of them. New normal
// cubes start with default indentations. Setting the current type again
// does nothing.
func (c *Cube) SetType(t Type) {
	if c.Type() == t {
		return
	}
	if old, ok := c.body.(*octantBody); ok {
		for _, child := range old.children {
			child.detach()
		}
	}

	switch t {
	case Empty:
		c.body = emptyBody{}
	case Solid:
		c.body = solidBody{}
	case Normal:
		b := &normalBody{}
		for i := range b.indentations {
			b.indentations[i] = DefaultIndentation()
		}
		c.body = b
	case Octant:
		b := &octantBody{}
		for i := range b.children {
			b.children[i] = newChild(c, uint8(i))
		}
		c.body = b
	default:
		panic(fmt.Sprintf("octree: cannot set cube type %v", t))
	}
	c.invalidate()
}

// detach releases a subtree that is no longer reachable from its parent.
func (c *Cube) detach() {
	if b, ok := c.body.(*octantBody); ok {
		for _, child := range b.children {
			child.detach()
		}
	}
	c.parent = weak.Pointer[Cube]{}
	c.body = emptyBody{}
	c.invalidate()
}

// Size is the edge length of the cube.
func (c *Cube) Size() float32 { return c.size }

// Position is the minimum corner of the cube.
func (c *Cube) Position() glm.Vec3 { return c.position }

// Center is the midpoint of the cube.
func (c *Cube) Center() glm.Vec3 {
	half := c.size / 2
	return c.position.Add(glm.Vec3{half, half, half})
}

// Index is the slot of the cube in its parent.
func (c *Cube) Index() uint8 { return c.index }

// Parent returns the owning octant, or nil for a root.
func (c *Cube) Parent() *Cube { return c.parent.Value() }

// IsRoot reports whether the cube has no parent.
func (c *Cube) IsRoot() bool { return c.Parent() == nil }

// Root walks up to the top of the tree.
func (c *Cube) Root() *Cube {
	root := c
	for p := root.Parent(); p != nil; p = root.Parent() {
		root = p
	}
	return root
}

// Level is the number of ancestors of the cube.
func (c *Cube) Level() int {
	level := 0
	for p := c.Parent(); p != nil; p = p.Parent() {
		level++
	}
	return level
}

// Children returns the eight children of an octant, nil for any other type.
func (c *Cube) Children() []*Cube {
	if b, ok := c.body.(*octantBody); ok {
		return b.children[:]
	}
	return nil
}

// Child returns child i of an octant.
func (c *Cube) Child(i int) *Cube {
	b, ok := c.body.(*octantBody)
	if !ok {
		return nil
	}
	return b.children[i]
}

// Indentations returns a copy of the edge indentations of a normal cube.
// Other types report default indentations.
func (c *Cube) Indentations() [Edges]Indentation {
	if b, ok := c.body.(*normalBody); ok {
		return b.indentations
	}
	var ind [Edges]Indentation
	for i := range ind {
		ind[i] = DefaultIndentation()
	}
	return ind
}

// SetIndentation replaces the indentation of one edge of a normal cube.
func (c *Cube) SetIndentation(edge int, ind Indentation) {
	b, ok := c.body.(*normalBody)
	if !ok {
		return
	}
	checkEdge(edge)
	b.indentations[edge] = ind
	c.invalidate()
}

// SetIndentations replaces all edge indentations of a normal cube.
func (c *Cube) SetIndentations(ind [Edges]Indentation) {
	b, ok := c.body.(*normalBody)
	if !ok {
		return
	}
	b.indentations = ind
	c.invalidate()
}

// Indent moves one endpoint of an edge of a normal cube by steps. A positive
// direction moves the low endpoint, otherwise the high endpoint moves.
func (c *Cube) Indent(edge int, positive bool, steps int) {
	b, ok := c.body.(*normalBody)
	if !ok {
		return
	}
	checkEdge(edge)
	if positive {
		b.indentations[edge].IndentStart(steps)
	} else {
		b.indentations[edge].IndentEnd(steps)
	}
	c.invalidate()
}

func checkEdge(edge int) {
	if edge < 0 || edge >= Edges {
		panic(fmt.Sprintf("octree: edge %d out of range", edge))
	}
}

func (c *Cube) setPlacement(index uint8, position glm.Vec3) {
	c.index = index
	if c.position != position {
		c.position = position
		c.invalidate()
	}
	if b, ok := c.body.(*octantBody); ok {
		half := c.size / 2
		for i, child := range b.children {
			child.setPlacement(uint8(i), position.Add(childOffset(uint8(i), half)))
		}
	}
}

// Clone makes a deep copy of the cube as a new root.
func (c *Cube) Clone() *Cube {
	clone := &Cube{
		size:     c.size,
		position: c.position,
		index:    c.index,
	}
	c.cloneInto(clone)
	return clone
}

func (c *Cube) cloneInto(dst *Cube) {
	switch b := c.body.(type) {
	case emptyBody, solidBody:
		dst.body = b
	case *normalBody:
		dst.body = &normalBody{indentations: b.indentations}
	case *octantBody:
		nb := &octantBody{}
		for i, child := range b.children {
			nb.children[i] = &Cube{
				size:     child.size,
				position: child.position,
				parent:   weak.Make(dst),
				index:    child.index,
			}
			child.cloneInto(nb.children[i])
		}
		dst.body = nb
	default:
		panic(fmt.Sprintf("octree: unknown cube body %T", b))
	}
	// Caches are never written to after creation, sharing them is safe.
	dst.polygons = c.polygons
	dst.valid = c.valid
}

// Equal reports whether both trees have the same shape, types, sizes,
// positions and indentations.
func (c *Cube) Equal(other *Cube) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Type() != other.Type() || c.size != other.size {
		return false
	}
	for i := range c.position {
		if glm.Abs(c.position[i]-other.position[i]) > 1e-5 {
			return false
		}
	}
	switch b := c.body.(type) {
	case *normalBody:
		return b.indentations == other.body.(*normalBody).indentations
	case *octantBody:
		ob := other.body.(*octantBody)
		for i := range b.children {
			if !b.children[i].Equal(ob.children[i]) {
				return false
			}
		}
	}
	return true
}

// Walk visits the cube and all of its descendants in pre-order.
// Returning false from fn skips the children of that cube.
func (c *Cube) Walk(fn func(*Cube) bool) {
	if !fn(c) {
		return
	}
	for _, child := range c.Children() {
		child.Walk(fn)
	}
}

// Census counts cubes per type.
type Census struct {
	Empty  int
	Solid  int
	Normal int
	Octant int
	Depth  int
}

// Geometry is the number of cubes that produce polygons.
func (c Census) Geometry() int { return c.Solid + c.Normal }

// Total is the number of cubes in the tree.
func (c Census) Total() int { return c.Empty + c.Solid + c.Normal + c.Octant }

// Count takes a census of the tree below and including c.
func (c *Cube) Count() Census {
	var census Census
	base := c.Level()
	c.Walk(func(cube *Cube) bool {
		switch cube.Type() {
		case Empty:
			census.Empty++
		case Solid:
			census.Solid++
		case Normal:
			census.Normal++
		case Octant:
			census.Octant++
		}
		if d := cube.Level() - base; d > census.Depth {
			census.Depth = d
		}
		return true
	})
	return census
}

func (c *Cube) String() string {
	return fmt.Sprintf("Cube{%v size=%g pos=%v}", c.Type(), c.size, c.position)
}
