// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rendergraph_test

import (
	"fmt"

	"github.com/devblok/koruvox/gfx"
	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
)

type handle struct {
	id   int
	kind string
	dev  *fakeDevice
}

func (h *handle) Release() {
	delete(h.dev.live, h.id)
	h.dev.released++
}

type fakeImage struct {
	handle
	desc rendergraph.ImageDesc
}

func (i *fakeImage) View() rendergraph.ImageView { return fmt.Sprintf("view-%d", i.id) }

type fakeBuffer struct {
	handle
	size int
	data []byte
}

func (b *fakeBuffer) Size() int { return b.size }

func (b *fakeBuffer) Upload(data []byte) error {
	b.data = append(b.data[:0], data...)
	return nil
}

type fakePipeline struct {
	handle
	desc rendergraph.PipelineDesc
}

type fakeCmd struct {
	handle
	calls []string
}

func (c *fakeCmd) log(format string, args ...interface{}) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *fakeCmd) Begin() error { c.log("begin"); return nil }
func (c *fakeCmd) BeginRenderPass(pass rendergraph.RenderPass, fb rendergraph.Framebuffer, area gfx.Extent2D, clears []rendergraph.ClearValue) {
	c.log("begin_pass %d", len(clears))
}
func (c *fakeCmd) BindPipeline(p rendergraph.Pipeline) {
	c.log("pipeline %s", p.(*fakePipeline).desc.Name)
}
func (c *fakeCmd) BindVertexBuffers(first uint32, buffers []rendergraph.Buffer) {
	c.log("vertex %d", len(buffers))
}
func (c *fakeCmd) BindIndexBuffer(b rendergraph.Buffer, t vk.IndexType) { c.log("index") }
func (c *fakeCmd) BindDescriptorSets(l rendergraph.PipelineLayout, first uint32, sets []rendergraph.DescriptorSet) {
	c.log("sets %d", len(sets))
}
func (c *fakeCmd) PushConstants(l rendergraph.PipelineLayout, s vk.ShaderStageFlags, offset uint32, data []byte) {
	c.log("push %d", len(data))
}
func (c *fakeCmd) Draw(vertices, instances, firstVertex, firstInstance uint32) {
	c.log("draw %d", vertices)
}
func (c *fakeCmd) DrawIndexed(indices, instances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	c.log("draw_indexed %d", indices)
}
func (c *fakeCmd) EndRenderPass() { c.log("end_pass") }
func (c *fakeCmd) End() error     { c.log("end"); return nil }
func (c *fakeCmd) Reset() error   { c.calls = nil; return nil }

type submission struct {
	image uint32
	cmds  []rendergraph.CommandBuffer
}

type fakeDevice struct {
	next     int
	live     map[int]string
	released int

	extent gfx.Extent2D
	views  []rendergraph.ImageView
	image  uint32

	images       []rendergraph.ImageDesc
	buffers      []*fakeBuffer
	passes       []rendergraph.RenderPassDesc
	framebuffers []rendergraph.FramebufferDesc
	pipelines    []rendergraph.PipelineDesc
	layouts      []rendergraph.PipelineLayoutDesc
	writes       [][]rendergraph.DescriptorWrite

	acquireErrs []error
	presentErrs []error
	bufferErr   error
	submits     []submission
	presents    []uint32
	waits       int
	recreations int
}

func newFakeDevice(images int) *fakeDevice {
	d := &fakeDevice{
		live:   make(map[int]string),
		extent: gfx.Extent2D{Width: 800, Height: 600},
	}
	d.setViews(images)
	return d
}

func (d *fakeDevice) setViews(n int) {
	d.views = make([]rendergraph.ImageView, n)
	for i := range d.views {
		d.next++
		d.views[i] = fmt.Sprintf("swapchain-%d", d.next)
	}
}

func (d *fakeDevice) handle(kind string) handle {
	d.next++
	d.live[d.next] = kind
	return handle{id: d.next, kind: kind, dev: d}
}

func (d *fakeDevice) liveKinds() map[string]int {
	kinds := make(map[string]int)
	for _, k := range d.live {
		kinds[k]++
	}
	return kinds
}

func (d *fakeDevice) SwapchainExtent() gfx.Extent2D                { return d.extent }
func (d *fakeDevice) SwapchainFormat() vk.Format                   { return vk.FormatB8g8r8a8Unorm }
func (d *fakeDevice) SwapchainImageViews() []rendergraph.ImageView { return d.views }

func (d *fakeDevice) CreateImage(desc rendergraph.ImageDesc) (rendergraph.Image, error) {
	d.images = append(d.images, desc)
	return &fakeImage{handle: d.handle("image"), desc: desc}, nil
}

func (d *fakeDevice) CreateBuffer(desc rendergraph.BufferDesc) (rendergraph.Buffer, error) {
	if d.bufferErr != nil {
		return nil, d.bufferErr
	}
	b := &fakeBuffer{handle: d.handle("buffer"), size: desc.Size}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *fakeDevice) CreateRenderPass(desc rendergraph.RenderPassDesc) (rendergraph.RenderPass, error) {
	d.passes = append(d.passes, desc)
	h := d.handle("render_pass")
	return &h, nil
}

func (d *fakeDevice) CreateFramebuffer(desc rendergraph.FramebufferDesc) (rendergraph.Framebuffer, error) {
	d.framebuffers = append(d.framebuffers, desc)
	h := d.handle("framebuffer")
	return &h, nil
}

func (d *fakeDevice) CreateDescriptorSetLayout(bindings []rendergraph.DescriptorBinding) (rendergraph.DescriptorSetLayout, error) {
	h := d.handle("descriptor_layout")
	return &h, nil
}

func (d *fakeDevice) AllocateDescriptorSet(layout rendergraph.DescriptorSetLayout) (rendergraph.DescriptorSet, error) {
	d.next++
	return d.next, nil
}

func (d *fakeDevice) UpdateDescriptorSet(set rendergraph.DescriptorSet, writes []rendergraph.DescriptorWrite) error {
	d.writes = append(d.writes, writes)
	return nil
}

func (d *fakeDevice) CreatePipelineLayout(desc rendergraph.PipelineLayoutDesc) (rendergraph.PipelineLayout, error) {
	d.layouts = append(d.layouts, desc)
	h := d.handle("pipeline_layout")
	return &h, nil
}

func (d *fakeDevice) CreateGraphicsPipeline(desc rendergraph.PipelineDesc) (rendergraph.Pipeline, error) {
	d.pipelines = append(d.pipelines, desc)
	return &fakePipeline{handle: d.handle("pipeline"), desc: desc}, nil
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]rendergraph.CommandBuffer, error) {
	cmds := make([]rendergraph.CommandBuffer, count)
	for i := range cmds {
		cmds[i] = &fakeCmd{handle: d.handle("command_buffer")}
	}
	return cmds, nil
}

func (d *fakeDevice) FreeCommandBuffers(cmds []rendergraph.CommandBuffer) {
	for _, c := range cmds {
		c.(*fakeCmd).Release()
	}
}

func (d *fakeDevice) AcquireNextImage() (uint32, error) {
	if len(d.acquireErrs) > 0 {
		err := d.acquireErrs[0]
		d.acquireErrs = d.acquireErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	img := d.image
	d.image = (d.image + 1) % uint32(len(d.views))
	return img, nil
}

func (d *fakeDevice) Submit(image uint32, cmds []rendergraph.CommandBuffer) error {
	d.submits = append(d.submits, submission{image: image, cmds: cmds})
	return nil
}

func (d *fakeDevice) Present(image uint32) error {
	d.presents = append(d.presents, image)
	if len(d.presentErrs) > 0 {
		err := d.presentErrs[0]
		d.presentErrs = d.presentErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waits++
	return nil
}

func (d *fakeDevice) RecreateSwapchain() error {
	d.recreations++
	d.extent = gfx.Extent2D{Width: 1024, Height: 768}
	d.setViews(len(d.views))
	d.image = 0
	return nil
}
