// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree

import "fmt"

// Axis is one of the three coordinate axes.
type Axis uint8

// Axes. The value is the bit of a child index that encodes the axis.
const (
	AxisZ Axis = iota
	AxisY
	AxisX
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

type cycle [4]uint8

// rotation describes a quarter turn around one axis. Each cycle moves the
// element at position i+1 to position i. The last edge cycle holds the
// edges parallel to the axis, they keep their direction.
type rotation struct {
	children [2]cycle
	edges    [3]cycle
}

var rotations = [...]rotation{
	AxisZ: {
		children: [2]cycle{{0, 2, 6, 4}, {1, 3, 7, 5}},
		edges:    [3]cycle{{0, 1, 3, 10}, {9, 4, 6, 7}, {2, 11, 8, 5}},
	},
	AxisY: {
		children: [2]cycle{{0, 4, 5, 1}, {2, 6, 7, 3}},
		edges:    [3]cycle{{2, 0, 5, 9}, {11, 3, 8, 6}, {1, 10, 7, 4}},
	},
	AxisX: {
		children: [2]cycle{{0, 1, 3, 2}, {4, 5, 7, 6}},
		edges:    [3]cycle{{1, 2, 4, 11}, {10, 5, 7, 8}, {0, 9, 6, 3}},
	},
}

// permute rotates the elements of s along c by quarter turns.
func permute[T any](s []T, c cycle, quarters int) {
	a, b, d, e := s[c[0]], s[c[1]], s[c[2]], s[c[3]]
	switch quarters {
	case 1:
		s[c[0]], s[c[1]], s[c[2]], s[c[3]] = b, d, e, a
	case 2:
		s[c[0]], s[c[1]], s[c[2]], s[c[3]] = d, e, a, b
	case 3:
		s[c[0]], s[c[1]], s[c[2]], s[c[3]] = e, a, b, d
	}
}

// mirrored lists the cycle positions whose edges flip direction after
// the given number of quarter turns.
var mirrored = [4][]int{
	1: {0, 2},
	2: {0, 1, 2, 3},
	3: {1, 3},
}

// Rotate turns the cube around axis by quarter turns, negative values turn
// the other way. Normal cubes move and mirror their edge indentations,
// octants move their children and rotate each of them. Empty and solid
// cubes are unchanged.
func (c *Cube) Rotate(axis Axis, quarters int) {
	if int(axis) >= len(rotations) {
		panic(fmt.Sprintf("octree: unknown axis %v", axis))
	}
	quarters = ((quarters % 4) + 4) % 4
	if quarters == 0 {
		return
	}
	c.rotate(&rotations[axis], quarters)
}

func (c *Cube) rotate(r *rotation, quarters int) {
	switch b := c.body.(type) {
	case emptyBody, solidBody:
	case *normalBody:
		for _, cy := range r.edges {
			permute(b.indentations[:], cy, quarters)
		}
		for _, cy := range r.edges[:2] {
			for _, pos := range mirrored[quarters] {
				b.indentations[cy[pos]].Mirror()
			}
		}
		c.invalidate()
	case *octantBody:
		for _, cy := range r.children {
			permute(b.children[:], cy, quarters)
		}
		half := c.size / 2
		for i, child := range b.children {
			child.setPlacement(uint8(i), c.position.Add(childOffset(uint8(i), half)))
			child.rotate(r, quarters)
		}
	default:
		panic(fmt.Sprintf("octree: unknown cube body %T", b))
	}
}
