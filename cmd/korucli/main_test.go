// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readInfo(t *testing.T, path string) fileInfo {
	var out bytes.Buffer
	require.NoError(t, info(&out, path, 2))
	var result fileInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	return result
}

func TestGenerateAndInfo(t *testing.T) {
	logger, _ := test.NewNullLogger()
	for _, generator := range []string{"random", "perlin"} {
		path := filepath.Join(t.TempDir(), generator+".oct")
		require.NoError(t, run("generate", []string{"-generator", generator, "-depth", "2", "-seed", "3", "-o", path}, nil, logger))

		result := readInfo(t, path)
		assert.Equal(t, path, result.File, generator)
		assert.Positive(t, result.Size, generator)
		assert.Positive(t, result.Empty+result.Solid+result.Normal+result.Octant, generator)
		assert.LessOrEqual(t, result.Depth, 3, generator)
		assert.Nil(t, result.Extra, generator)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	first, second := filepath.Join(dir, "a.oct"), filepath.Join(dir, "b.oct")
	require.NoError(t, generate(generateOptions{Generator: "random", Depth: 2, Seed: 7, Size: 2, Output: first}, logger))
	require.NoError(t, generate(generateOptions{Generator: "random", Depth: 2, Seed: 7, Size: 2, Output: second}, logger))

	a, b := readInfo(t, first), readInfo(t, second)
	a.File, b.File = "", ""
	assert.Equal(t, a, b)
}

func TestConvertKeepsTree(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dir := t.TempDir()
	raw := filepath.Join(dir, "world.oct")
	require.NoError(t, generate(generateOptions{Generator: "random", Depth: 2, Seed: 5, Size: 2, Output: raw}, logger))

	for _, name := range []string{"world.oct.lz4", "world.oct.zst"} {
		dst := filepath.Join(dir, name)
		require.NoError(t, run("convert", []string{raw, dst}, nil, logger))

		before, after := readInfo(t, raw), readInfo(t, dst)
		assert.Equal(t, before.Empty, after.Empty, name)
		assert.Equal(t, before.Solid, after.Solid, name)
		assert.Equal(t, before.Normal, after.Normal, name)
		assert.Equal(t, before.Octant, after.Octant, name)
		assert.Equal(t, before.Triangles, after.Triangles, name)
		assert.NotEmpty(t, after.Extra["compression"], name)
	}
	assert.Equal(t, "converted", hook.LastEntry().Message)
}

func TestRunErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.Error(t, run("explode", nil, nil, logger))
	assert.Error(t, run("info", nil, nil, logger))
	assert.Error(t, run("convert", []string{"only-one"}, nil, logger))
	assert.Error(t, run("generate", []string{"-generator", "mountains", "-o", filepath.Join(t.TempDir(), "x.oct")}, nil, logger))
	assert.Error(t, run("info", []string{filepath.Join(t.TempDir(), "missing.oct")}, &bytes.Buffer{}, logger))
}
