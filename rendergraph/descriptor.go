// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rendergraph

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// LayoutFunc returns the bindings of a descriptor set layout.
type LayoutFunc func() []DescriptorBinding

// AllocFunc allocates the descriptor set for a layout.
type AllocFunc func(dev Device, layout DescriptorSetLayout) (DescriptorSet, error)

// WriteFunc points the bindings of a descriptor set at graph resources.
// It runs every time the physical resources change.
type WriteFunc func(w *DescriptorWriter)

// ResourceDescriptor is a descriptor set whose layout and set live as long
// as the graph, and whose writes follow the physical resources.
type ResourceDescriptor struct {
	name   string
	layout DescriptorSetLayout
	set    DescriptorSet
	write  WriteFunc
}

// Name of the descriptor.
func (d *ResourceDescriptor) Name() string { return d.name }

// Layout is the descriptor set layout.
func (d *ResourceDescriptor) Layout() DescriptorSetLayout { return d.layout }

// Set is the descriptor set.
func (d *ResourceDescriptor) Set() DescriptorSet { return d.set }

// DescriptorWriter collects writes against graph resources.
type DescriptorWriter struct {
	graph  *Graph
	writes []DescriptorWrite
}

// Buffer writes the physical buffer of b at binding. Buffers without
// data have no physical buffer yet and are skipped.
func (w *DescriptorWriter) Buffer(binding uint32, typ vk.DescriptorType, b *BufferResource) {
	buf, ok := w.graph.buffers[b]
	if !ok {
		return
	}
	w.writes = append(w.writes, DescriptorWrite{Binding: binding, Type: typ, Buffer: buf})
}

// Texture writes the view of the physical image of t at binding.
func (w *DescriptorWriter) Texture(binding uint32, typ vk.DescriptorType, t *TextureResource) {
	img, ok := w.graph.images[t]
	if !ok {
		return
	}
	w.writes = append(w.writes, DescriptorWrite{Binding: binding, Type: typ, Image: img.View()})
}

// UniformBufferLayout is a LayoutFunc for a single uniform buffer at binding 0.
func UniformBufferLayout(stages vk.ShaderStageFlags) LayoutFunc {
	return func() []DescriptorBinding {
		return []DescriptorBinding{{
			Binding: 0,
			Type:    vk.DescriptorTypeUniformBuffer,
			Count:   1,
			Stages:  stages,
		}}
	}
}

func (g *Graph) writeDescriptors() error {
	for _, d := range g.descriptors {
		if d.write == nil {
			continue
		}
		w := &DescriptorWriter{graph: g}
		d.write(w)
		if len(w.writes) == 0 {
			continue
		}
		if err := g.device.UpdateDescriptorSet(d.set, w.writes); err != nil {
			return fmt.Errorf("descriptor %s: %w", d.name, err)
		}
	}
	return nil
}
