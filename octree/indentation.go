// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree

import "fmt"

// Indentation limits and the number of distinct indentations.
const (
	MaxIndentation = 8
	MaxUID         = 44
)

// uidBase is the first uid of every start value.
var uidBase = [MaxIndentation + 1]uint8{0, 9, 17, 24, 30, 35, 39, 42, 44}

// Indentation pinches one edge of a cube from both of its endpoints.
// Both values are absolute positions along the edge, the invariant
// 0 <= start <= end <= MaxIndentation always holds. The zero indentation
// is not the default one, use DefaultIndentation.
type Indentation struct {
	start uint8
	end   uint8
}

// DefaultIndentation is an edge that is not indented at all.
func DefaultIndentation() Indentation {
	return Indentation{start: 0, end: MaxIndentation}
}

// NewIndentation clamps start and end into a valid indentation.
func NewIndentation(start, end int) Indentation {
	var ind Indentation
	ind.end = MaxIndentation
	ind.SetStart(start)
	ind.SetEnd(end)
	return ind
}

// IndentationFromUID rebuilds an indentation from its uid.
// Values above MaxUID are clamped.
func IndentationFromUID(uid uint8) Indentation {
	if uid > MaxUID {
		uid = MaxUID
	}
	for start := MaxIndentation; start >= 0; start-- {
		if base := uidBase[start]; base <= uid {
			return Indentation{
				start: uint8(start),
				end:   uint8(start) + (uid - base),
			}
		}
	}
	panic("unreachable")
}

// UID enumerates the legal (start, end) pairs in [0, MaxUID].
func (i Indentation) UID() uint8 {
	s := int(i.start)
	return uint8(10*s + int(i.Offset()) - (s*s+s)/2)
}

// StartAbs is the absolute position of the low endpoint.
func (i Indentation) StartAbs() uint8 { return i.start }

// EndAbs is the absolute position of the high endpoint.
func (i Indentation) EndAbs() uint8 { return i.end }

// Start is the distance the low endpoint has been moved inwards.
func (i Indentation) Start() uint8 { return i.start }

// End is the distance the high endpoint has been moved inwards.
func (i Indentation) End() uint8 { return MaxIndentation - i.end }

// Offset is the remaining length of the edge.
func (i Indentation) Offset() uint8 { return i.end - i.start }

// SetStart moves the low endpoint, pushing the high endpoint along when needed.
func (i *Indentation) SetStart(position int) {
	i.start = uint8(clamp(position, 0, MaxIndentation))
	i.end = uint8(clamp(int(i.end), int(i.start), MaxIndentation))
}

// SetEnd moves the high endpoint, pushing the low endpoint along when needed.
func (i *Indentation) SetEnd(position int) {
	i.end = uint8(clamp(position, 0, MaxIndentation))
	i.start = uint8(clamp(int(i.start), 0, int(i.end)))
}

// IndentStart moves the low endpoint inwards by steps.
func (i *Indentation) IndentStart(steps int) {
	i.SetStart(int(i.start) + steps)
}

// IndentEnd moves the high endpoint inwards by steps.
func (i *Indentation) IndentEnd(steps int) {
	i.SetEnd(int(i.end) - steps)
}

// Mirror flips the edge direction, (s, e) becomes (Max-e, Max-s).
func (i *Indentation) Mirror() {
	i.start, i.end = MaxIndentation-i.end, MaxIndentation-i.start
}

// Mirrored returns a flipped copy of i.
func (i Indentation) Mirrored() Indentation {
	i.Mirror()
	return i
}

func (i Indentation) String() string {
	return fmt.Sprintf("(%d, %d)", i.start, i.end)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
