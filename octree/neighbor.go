// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree

// Direction along an axis.
type Direction int8

// Directions.
const (
	Negative Direction = -1
	Positive Direction = 1
)

// Neighbor finds the cube that shares the face of c facing dir along axis.
// The result is either the same size as c or, when that part of the tree is
// not subdivided as deep, a larger cube. Nil is returned when the neighbor
// would lie outside the root.
func (c *Cube) Neighbor(axis Axis, dir Direction) *Cube {
	parent := c.Parent()
	if parent == nil {
		return nil
	}

	mask := uint8(1) << axis
	home := c.index & mask

	// The bit tells on which side of the parent the cube sits. If dir points
	// towards the other half, the neighbor is a sibling.
	if (home != 0 && dir == Negative) || (home == 0 && dir == Positive) {
		return parent.Child(int(c.index ^ mask))
	}

	// Climb until an ancestor sits on the other side of its own parent,
	// that parent contains both cubes.
	history := []uint8{c.index}
	node := parent
	for {
		grand := node.Parent()
		if grand == nil {
			return nil
		}
		history = append(history, node.index)
		crossed := node.index&mask != home
		node = grand
		if crossed {
			break
		}
	}

	// Walk the mirrored path back down.
	for i := len(history) - 1; i >= 0; i-- {
		if node.Type() != Octant {
			return node
		}
		node = node.Child(int(history[i] ^ mask))
	}
	return node
}
