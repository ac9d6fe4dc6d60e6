// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/devblok/koruvox/core"
	"github.com/devblok/koruvox/octree"
	"github.com/devblok/koruvox/octree/persist"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

func devices(out io.Writer, validation bool) error {
	instance, err := core.NewInstance(nil, "korucli", nil, validation)
	if err != nil {
		return err
	}
	defer instance.Destroy()

	bytes, err := json.MarshalIndent(instance.DevicesInfo(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", bytes)
	return nil
}

type generateOptions struct {
	Generator string
	Depth     int
	Seed      int64
	Size      float64
	Output    string
}

func generate(opts generateOptions, logger logrus.FieldLogger) error {
	world, err := core.NewWorld(core.WorldConfiguration{
		Depth:     opts.Depth,
		Seed:      opts.Seed,
		Size:      float32(opts.Size),
		Generator: opts.Generator,
	}, logger)
	if err != nil {
		return err
	}
	return world.Save(opts.Output)
}

type fileInfo struct {
	File      string            `json:"file"`
	Size      int64             `json:"bytes"`
	Empty     int               `json:"empty"`
	Solid     int               `json:"solid"`
	Normal    int               `json:"normal"`
	Octant    int               `json:"octant"`
	Depth     int               `json:"depth"`
	Triangles int               `json:"triangles"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func origin(size float32) glm.Vec3 {
	return glm.Vec3{-size / 2, -size / 2, -size / 2}
}

func info(out io.Writer, path string, size float32) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	root, err := persist.Load(path, size, origin(size))
	if err != nil {
		return err
	}
	census := root.Count()
	result := fileInfo{
		File:      path,
		Size:      stat.Size(),
		Empty:     census.Empty,
		Solid:     census.Solid,
		Normal:    census.Normal,
		Octant:    census.Octant,
		Depth:     census.Depth,
		Triangles: triangles(root),
	}
	if c := persist.CompressionOf(path); c != persist.None {
		result.Extra = map[string]string{"compression": compressionName(c)}
	}

	bytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", bytes)
	return nil
}

func triangles(root *octree.Cube) int {
	var n int
	for _, polys := range root.Polygons(true) {
		n += len(polys)
	}
	return n
}

func compressionName(c persist.Compression) string {
	switch c {
	case persist.LZ4:
		return "lz4"
	case persist.Zstd:
		return "zstd"
	}
	return "none"
}

func convert(src, dst string, logger logrus.FieldLogger) error {
	root, err := persist.Load(src, 1, origin(1))
	if err != nil {
		return err
	}
	if err := persist.Save(dst, root); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"from":        src,
		"to":          dst,
		"compression": compressionName(persist.CompressionOf(dst)),
	}).Info("converted")
	return nil
}
