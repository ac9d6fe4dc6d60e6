// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package octree_test

import (
	"testing"

	"github.com/devblok/koruvox/octree"
	"github.com/stretchr/testify/assert"
)

func TestIndentationUIDBijection(t *testing.T) {
	seen := make(map[octree.Indentation]bool)
	for uid := 0; uid <= octree.MaxUID; uid++ {
		ind := octree.IndentationFromUID(uint8(uid))
		assert.Equal(t, uint8(uid), ind.UID(), "uid %d", uid)
		assert.LessOrEqual(t, ind.StartAbs(), ind.EndAbs())
		assert.False(t, seen[ind], "uid %d decoded to a duplicate %v", uid, ind)
		seen[ind] = true
	}
	assert.Len(t, seen, octree.MaxUID+1)
}

func TestIndentationPairsPreserved(t *testing.T) {
	for start := 0; start <= octree.MaxIndentation; start++ {
		for end := start; end <= octree.MaxIndentation; end++ {
			ind := octree.NewIndentation(start, end)
			assert.Equal(t, uint8(start), ind.StartAbs())
			assert.Equal(t, uint8(end), ind.EndAbs())
			assert.Equal(t, ind, octree.IndentationFromUID(ind.UID()))
		}
	}
}

func TestIndentationDefault(t *testing.T) {
	ind := octree.DefaultIndentation()
	assert.Equal(t, uint8(0), ind.Start())
	assert.Equal(t, uint8(0), ind.End())
	assert.Equal(t, uint8(octree.MaxIndentation), ind.Offset())
	assert.Equal(t, uint8(8), ind.UID())
}

func TestIndentationClamping(t *testing.T) {
	for x := -3; x <= octree.MaxIndentation+3; x++ {
		for _, uid := range []uint8{0, 8, 20, 44} {
			ind := octree.IndentationFromUID(uid)
			ind.SetStart(x)
			assert.LessOrEqual(t, ind.StartAbs(), ind.EndAbs())
			assert.LessOrEqual(t, ind.EndAbs(), uint8(octree.MaxIndentation))

			ind = octree.IndentationFromUID(uid)
			ind.SetEnd(x)
			assert.LessOrEqual(t, ind.StartAbs(), ind.EndAbs())
		}
	}

	ind := octree.NewIndentation(2, 4)
	ind.SetStart(6)
	assert.Equal(t, octree.NewIndentation(6, 6), ind)

	ind = octree.NewIndentation(2, 4)
	ind.SetEnd(1)
	assert.Equal(t, octree.NewIndentation(1, 1), ind)
}

func TestIndentationIndent(t *testing.T) {
	ind := octree.DefaultIndentation()
	ind.IndentStart(3)
	assert.Equal(t, uint8(3), ind.Start())
	ind.IndentEnd(2)
	assert.Equal(t, uint8(2), ind.End())
	assert.Equal(t, uint8(6), ind.EndAbs())

	ind.IndentStart(100)
	assert.Equal(t, uint8(octree.MaxIndentation), ind.StartAbs())
	assert.Equal(t, uint8(octree.MaxIndentation), ind.EndAbs(), "end pushed along")
	ind.IndentStart(-100)
	assert.Equal(t, uint8(0), ind.StartAbs())
	assert.Equal(t, uint8(octree.MaxIndentation), ind.EndAbs())

	for _, steps := range []int{-9, -3, 0, 2, 5, 11} {
		ind = octree.NewIndentation(3, 6)
		ind.IndentStart(steps)
		ind.IndentEnd(steps)
		assert.LessOrEqual(t, ind.StartAbs(), ind.EndAbs())
		assert.LessOrEqual(t, ind.EndAbs(), uint8(octree.MaxIndentation))
	}
}

func TestIndentationMirror(t *testing.T) {
	ind := octree.NewIndentation(1, 5)
	m := ind.Mirrored()
	assert.Equal(t, octree.NewIndentation(3, 7), m)
	assert.Equal(t, ind.Start(), m.End())
	assert.Equal(t, ind.End(), m.Start())
	assert.Equal(t, ind, m.Mirrored())
}
