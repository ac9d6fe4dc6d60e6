// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"sync"

	"github.com/devblok/koruvox/core"
	"github.com/sirupsen/logrus"
)

// Summary is what the inspector shows about the current world.
type Summary struct {
	Source    string
	Seed      int64
	Empty     int
	Solid     int
	Normal    int
	Octant    int
	Depth     int
	Triangles int
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d empty, %d solid, %d normal, %d octant, depth %d, %d triangles",
		s.Source, s.Empty, s.Solid, s.Normal, s.Octant, s.Depth, s.Triangles)
}

// Inspector holds the world edited in korued.
type Inspector struct {
	logger logrus.FieldLogger
	cfg    core.WorldConfiguration

	mutex  sync.Mutex
	world  *core.World
	source string
}

// NewInspector starts with a generated world.
func NewInspector(cfg core.WorldConfiguration, logger logrus.FieldLogger) (*Inspector, error) {
	world, err := core.NewWorld(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Inspector{
		logger: logger,
		cfg:    cfg,
		world:  world,
		source: cfg.Generator,
	}, nil
}

// Open loads an octree file. The current world is kept on error.
func (i *Inspector) Open(path string) (Summary, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if err := i.world.Load(path); err != nil {
		return i.summary(), err
	}
	i.source = path
	return i.summary(), nil
}

// Regenerate replaces the world with one made by generator from seed.
func (i *Inspector) Regenerate(generator string, seed int64) (Summary, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	cfg := i.cfg
	cfg.Generator = generator
	cfg.Seed = seed
	world, err := core.NewWorld(cfg, i.logger)
	if err != nil {
		return i.summary(), err
	}
	i.cfg = cfg
	i.world = world
	i.source = generator
	return i.summary(), nil
}

// Save writes the world to path.
func (i *Inspector) Save(path string) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.world.Save(path)
}

// Summary describes the current world.
func (i *Inspector) Summary() Summary {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.summary()
}

func (i *Inspector) summary() Summary {
	root := i.world.Root()
	census := root.Count()
	triangles := 0
	for _, polys := range root.Polygons(true) {
		triangles += len(polys)
	}
	return Summary{
		Source:    i.source,
		Seed:      i.world.Seed(),
		Empty:     census.Empty,
		Solid:     census.Solid,
		Normal:    census.Normal,
		Octant:    census.Octant,
		Depth:     census.Depth,
		Triangles: triangles,
	}
}
