// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"sync"

	"github.com/devblok/koruvox/model"
	"github.com/devblok/koruvox/octree"
	"github.com/devblok/koruvox/octree/collision"
	"github.com/devblok/koruvox/octree/persist"
	"github.com/devblok/koruvox/worldgen"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// World generators
const (
	RandomGenerator = "random"
	PerlinGenerator = "perlin"
)

// World is the octree shown by the renderer. Every change bumps its
// version so the renderer knows to rebuild the mesh.
type World struct {
	logger logrus.FieldLogger

	mu        sync.RWMutex
	root      *octree.Cube
	depth     int
	size      float32
	position  glm.Vec3
	seed      int64
	generator string
	version   uint64
}

// NewWorld generates the initial world from cfg. The world is centered
// on the origin.
func NewWorld(cfg WorldConfiguration, logger logrus.FieldLogger) (*World, error) {
	switch cfg.Generator {
	case "", RandomGenerator, PerlinGenerator:
	default:
		return nil, fmt.Errorf("unknown world generator %q", cfg.Generator)
	}
	if cfg.Generator == "" {
		cfg.Generator = RandomGenerator
	}
	half := cfg.Size / 2
	w := &World{
		logger:    logger.WithField("component", "world"),
		depth:     cfg.Depth,
		size:      cfg.Size,
		position:  glm.Vec3{-half, -half, -half},
		generator: cfg.Generator,
	}
	w.Generate(cfg.Seed)
	return w, nil
}

// Root returns the current root cube.
func (w *World) Root() *octree.Cube {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.root
}

// Seed returns the seed of the last generated world.
func (w *World) Seed() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.seed
}

// Version increases on every change of the world.
func (w *World) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// Generate replaces the world with a freshly generated one.
func (w *World) Generate(seed int64) {
	var root *octree.Cube
	switch w.generator {
	case PerlinGenerator:
		root = worldgen.DefaultTerrain.Generate(w.depth, w.size, w.position, seed)
	default:
		root = octree.RandomWorld(w.depth, w.size, w.position, octree.Seed(seed))
	}

	w.mu.Lock()
	w.root = root
	w.seed = seed
	w.version++
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"seed":      seed,
		"generator": w.generator,
		"cubes":     root.Count().Total(),
	}).Info("world generated")
}

// Regenerate generates a world with the next seed.
func (w *World) Regenerate() {
	w.Generate(w.Seed() + 1)
}

// Rotate rotates the whole world around axis.
func (w *World) Rotate(axis octree.Axis, quarters int) {
	w.mu.Lock()
	w.root.Rotate(axis, quarters)
	w.version++
	w.mu.Unlock()
}

// Save writes the world to path.
func (w *World) Save(path string) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if err := persist.Save(path, w.root); err != nil {
		return err
	}
	w.logger.WithField("path", path).Info("world saved")
	return nil
}

// Load replaces the world with the one stored at path. On error the
// current world is kept.
func (w *World) Load(path string) error {
	root, err := persist.Load(path, w.size, w.position)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.root = root
	w.version++
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"path":  path,
		"cubes": root.Count().Total(),
	}).Info("world loaded")
	return nil
}

// Pick casts a ray into the world.
func (w *World) Pick(position, direction glm.Vec3) (*collision.Collision, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return collision.RayCube(w.root, position, direction)
}

// Mesh builds the vertex and index data of the world.
func (w *World) Mesh() *model.Mesh {
	w.mu.Lock()
	defer w.mu.Unlock()
	return model.OctreeMesh(w.root, model.RandomColors(w.seed))
}
