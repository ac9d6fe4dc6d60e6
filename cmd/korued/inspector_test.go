// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"path/filepath"
	"testing"

	"github.com/devblok/koruvox/core"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInspector(t *testing.T) *Inspector {
	logger, _ := test.NewNullLogger()
	cfg := core.DefaultConfiguration().World
	cfg.Seed = 11
	inspector, err := NewInspector(cfg, logger)
	require.NoError(t, err)
	return inspector
}

func TestInspectorSummary(t *testing.T) {
	inspector := newInspector(t)
	s := inspector.Summary()
	assert.Equal(t, int64(11), s.Seed)
	assert.Equal(t, core.RandomGenerator, s.Source)
	assert.Positive(t, s.Empty+s.Solid+s.Normal+s.Octant)
	assert.Contains(t, s.String(), "triangles")
}

func TestInspectorRegenerate(t *testing.T) {
	inspector := newInspector(t)

	s, err := inspector.Regenerate(core.PerlinGenerator, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, core.PerlinGenerator, s.Source)

	again, err := inspector.Regenerate(core.PerlinGenerator, 42)
	require.NoError(t, err)
	assert.Equal(t, s, again)

	kept, err := inspector.Regenerate("caves", 1)
	assert.Error(t, err)
	assert.Equal(t, s, kept)
}

func TestInspectorSaveAndOpen(t *testing.T) {
	inspector := newInspector(t)
	before := inspector.Summary()

	path := filepath.Join(t.TempDir(), "world.oct.zst")
	require.NoError(t, inspector.Save(path))

	_, err := inspector.Regenerate(core.RandomGenerator, 99)
	require.NoError(t, err)

	s, err := inspector.Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, before.Empty, s.Empty)
	assert.Equal(t, before.Solid, s.Solid)
	assert.Equal(t, before.Normal, s.Normal)
	assert.Equal(t, before.Octant, s.Octant)
	assert.Equal(t, before.Triangles, s.Triangles)

	kept, err := inspector.Open(filepath.Join(t.TempDir(), "missing.oct"))
	assert.Error(t, err)
	assert.Equal(t, s, kept)
}
