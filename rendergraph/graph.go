// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rendergraph declares rendering work as a graph of stages and
// resources, and compiles it into render passes, pipelines, framebuffers
// and command buffers on a Device.
package rendergraph

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/devblok/koruvox/gfx"
	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

var (
	// ErrCycle is returned by Compile when stages depend on each other.
	ErrCycle = errors.New("render graph has a cycle")

	// ErrDuplicateName is returned when a declaration reuses a name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownResource is returned for resources not declared in the graph.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrUpdatePending is returned when a buffer is updated twice in one frame.
	ErrUpdatePending = errors.New("buffer update already pending")

	// ErrNotCompiled is returned by Render before a successful Compile.
	ErrNotCompiled = errors.New("render graph not compiled")

	// ErrNoPipeline is returned by Compile for a stage without a pipeline.
	ErrNoPipeline = errors.New("stage has no pipeline")
)

// Graph owns the declarations and, between Compile and Reset,
// the physical state they compile into.
type Graph struct {
	device Device
	logger logrus.FieldLogger

	names       map[nameKind]map[string]struct{}
	textures    []*TextureResource
	bufferDecls []*BufferResource
	stages      []*GraphicsStage
	pipelines   []*PipelineTemplate
	descriptors []*ResourceDescriptor

	target   *TextureResource
	compiled bool
	order    []*GraphicsStage
	physical map[*GraphicsStage]*PhysicalStage
	images   map[*TextureResource]Image
	buffers  map[*BufferResource]Buffer
	dirty    []bool
	resized  atomic.Bool
	frame    uint64
}

// New creates an empty graph on dev.
func New(dev Device, logger logrus.FieldLogger) *Graph {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Graph{
		device:   dev,
		logger:   logger.WithField("component", "rendergraph"),
		names:    make(map[nameKind]map[string]struct{}),
		physical: make(map[*GraphicsStage]*PhysicalStage),
		images:   make(map[*TextureResource]Image),
		buffers:  make(map[*BufferResource]Buffer),
	}
}

// nameKind separates the name sets. Textures and buffers share one.
type nameKind int

const (
	resourceName nameKind = iota
	pipelineName
	descriptorName
	stageName
)

func (g *Graph) claim(kind nameKind, name string) error {
	set, ok := g.names[kind]
	if !ok {
		set = make(map[string]struct{})
		g.names[kind] = set
	}
	if _, ok := set[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateName)
	}
	set[name] = struct{}{}
	return nil
}

// AddTexture declares a texture. Zero width or height makes it swapchain
// sized, zero samples means one.
func (g *Graph) AddTexture(name string, usage TextureUsage, format vk.Format, width, height uint32,
	samples vk.SampleCountFlagBits, onUpdate func(*TextureResource)) (*TextureResource, error) {
	if err := g.claim(resourceName, name); err != nil {
		return nil, err
	}
	if samples == 0 {
		samples = vk.SampleCount1Bit
	}
	t := &TextureResource{
		name:     name,
		usage:    usage,
		format:   format,
		width:    width,
		height:   height,
		samples:  samples,
		onUpdate: onUpdate,
	}
	g.textures = append(g.textures, t)
	return t, nil
}

// AddBuffer declares a buffer. It gets a physical buffer once it has data.
func (g *Graph) AddBuffer(name string, usage BufferUsage, onUpdate func(*BufferResource)) (*BufferResource, error) {
	if err := g.claim(resourceName, name); err != nil {
		return nil, err
	}
	b := &BufferResource{
		name:      name,
		usage:     usage,
		onUpdate:  onUpdate,
		indexType: vk.IndexTypeUint32,
	}
	g.bufferDecls = append(g.bufferDecls, b)
	return b, nil
}

// AddGraphicsPipeline declares a pipeline that stages can bind.
func (g *Graph) AddGraphicsPipeline(name string, build func(*PipelineBuilder)) (*PipelineTemplate, error) {
	if err := g.claim(pipelineName, name); err != nil {
		return nil, err
	}
	p := newPipelineTemplate(name)
	if build != nil {
		build(&PipelineBuilder{p: p})
	}
	g.pipelines = append(g.pipelines, p)
	return p, nil
}

// AddResourceDescriptor creates a descriptor set layout and allocates its set.
// A nil alloc uses the device's allocator.
func (g *Graph) AddResourceDescriptor(name string, layout LayoutFunc, alloc AllocFunc, write WriteFunc) (*ResourceDescriptor, error) {
	if err := g.claim(descriptorName, name); err != nil {
		return nil, err
	}
	l, err := g.device.CreateDescriptorSetLayout(layout())
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", name, err)
	}
	if alloc == nil {
		alloc = func(dev Device, l DescriptorSetLayout) (DescriptorSet, error) {
			return dev.AllocateDescriptorSet(l)
		}
	}
	set, err := alloc(g.device, l)
	if err != nil {
		l.Release()
		return nil, fmt.Errorf("descriptor %s: %w", name, err)
	}
	d := &ResourceDescriptor{name: name, layout: l, set: set, write: write}
	g.descriptors = append(g.descriptors, d)
	return d, nil
}

// AddGraphicsPass declares a graphics stage.
func (g *Graph) AddGraphicsPass(name string, build func(*StageBuilder)) (*GraphicsStage, error) {
	if err := g.claim(stageName, name); err != nil {
		return nil, err
	}
	s := &GraphicsStage{name: name, clearColor: [4]float32{0, 0, 0, 1}}
	if build != nil {
		build(&StageBuilder{stage: s})
	}
	g.stages = append(g.stages, s)
	return s, nil
}

// Resources lists declared textures and buffers in declaration order.
func (g *Graph) Resources() []Resource {
	res := make([]Resource, 0, len(g.textures)+len(g.bufferDecls))
	for _, t := range g.textures {
		res = append(res, t)
	}
	for _, b := range g.bufferDecls {
		res = append(res, b)
	}
	return res
}

// ExecutionOrder lists the compiled stage names in submission order.
func (g *Graph) ExecutionOrder() []string {
	names := make([]string, len(g.order))
	for i, s := range g.order {
		names[i] = s.name
	}
	return names
}

// Physical returns the compiled state of a stage, nil if not compiled.
func (g *Graph) Physical(s *GraphicsStage) *PhysicalStage { return g.physical[s] }

// Image returns the physical image of t, nil if it has none.
func (g *Graph) Image(t *TextureResource) Image { return g.images[t] }

// Compiled reports whether the graph holds physical state.
func (g *Graph) Compiled() bool { return g.compiled }

// Frame is the number of frames submitted.
func (g *Graph) Frame() uint64 { return g.frame }

// NotifyResize makes the next Render recreate the swapchain.
// It may be called from any goroutine.
func (g *Graph) NotifyResize() { g.resized.Store(true) }

func (g *Graph) declared(r Resource) bool {
	switch v := r.(type) {
	case *TextureResource:
		for _, t := range g.textures {
			if t == v {
				return true
			}
		}
	case *BufferResource:
		for _, b := range g.bufferDecls {
			if b == v {
				return true
			}
		}
	}
	return false
}

// sortStages orders the stages that target depends on so every stage
// comes after the writers of the resources it reads.
func (g *Graph) sortStages(target Resource) ([]*GraphicsStage, error) {
	writers := make(map[Resource][]*GraphicsStage)
	for _, s := range g.stages {
		for _, w := range s.writes {
			writers[w] = append(writers[w], s)
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*GraphicsStage]int)
	var order []*GraphicsStage
	var visit func(s *GraphicsStage) error
	visit = func(s *GraphicsStage) error {
		switch state[s] {
		case visiting:
			return fmt.Errorf("stage %s: %w", s.name, ErrCycle)
		case done:
			return nil
		}
		state[s] = visiting
		for _, r := range s.reads {
			for _, w := range writers[r] {
				if w == s {
					continue
				}
				if err := visit(w); err != nil {
					return err
				}
			}
		}
		state[s] = done
		order = append(order, s)
		return nil
	}
	for _, s := range writers[target] {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Compile materializes the stages target depends on, so that target
// ends in a presentable layout.
func (g *Graph) Compile(target *TextureResource) error {
	if target == nil || !g.declared(target) {
		return ErrUnknownResource
	}
	if g.compiled {
		if err := g.Reset(); err != nil {
			return err
		}
	}
	for _, s := range g.stages {
		for _, r := range s.reads {
			if !g.declared(r) {
				return fmt.Errorf("stage %s reads %s: %w", s.name, r.Name(), ErrUnknownResource)
			}
		}
		for _, w := range s.writes {
			if !g.declared(w) {
				return fmt.Errorf("stage %s writes %s: %w", s.name, w.Name(), ErrUnknownResource)
			}
		}
	}

	order, err := g.sortStages(target)
	if err != nil {
		return err
	}
	g.target = target
	g.order = order

	if err := g.compile(); err != nil {
		g.releasePhysical()
		return err
	}
	g.compiled = true
	g.logger.WithFields(logrus.Fields{
		"target": target.name,
		"stages": len(order),
	}).Debug("render graph compiled")
	return nil
}

func (g *Graph) compile() error {
	extent := g.device.SwapchainExtent()
	for _, t := range g.textures {
		if t.usage == BackBuffer {
			continue
		}
		desc := ImageDesc{
			Name:    t.name,
			Format:  t.format,
			Extent:  extent,
			Samples: t.samples,
			Usage:   t.imageUsage(),
			Aspect:  t.aspect(),
			Tiling:  vk.ImageTilingOptimal,
		}
		if t.width != 0 && t.height != 0 {
			desc.Extent = gfx.Extent2D{Width: t.width, Height: t.height}
		}
		img, err := g.device.CreateImage(desc)
		if err != nil {
			return fmt.Errorf("texture %s: %w", t.name, err)
		}
		g.images[t] = img
	}
	for _, b := range g.bufferDecls {
		if len(b.data) == 0 {
			continue
		}
		if err := g.allocateBuffer(b); err != nil {
			return err
		}
	}
	if err := g.writeDescriptors(); err != nil {
		return err
	}

	views := g.device.SwapchainImageViews()
	for _, s := range g.order {
		ps, err := g.compileStage(s, views)
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
		g.physical[s] = ps
	}
	g.dirty = make([]bool, len(views))
	for i := range views {
		if err := g.record(uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) allocateBuffer(b *BufferResource) error {
	buf, err := g.device.CreateBuffer(BufferDesc{
		Name:  b.name,
		Size:  len(b.data),
		Usage: b.usage.bufferUsage(),
	})
	if err != nil {
		return fmt.Errorf("buffer %s: %w", b.name, err)
	}
	if err := buf.Upload(b.data); err != nil {
		buf.Release()
		return fmt.Errorf("buffer %s: %w", b.name, err)
	}
	g.buffers[b] = buf
	return nil
}

func (g *Graph) renderPassDesc(s *GraphicsStage) RenderPassDesc {
	desc := RenderPassDesc{
		Name: s.name,
		Dependency: SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		},
	}
	load := vk.AttachmentLoadOpDontCare
	if s.clears {
		load = vk.AttachmentLoadOpClear
	}
	for i, t := range s.writes {
		format := t.format
		if t.usage == BackBuffer {
			format = g.device.SwapchainFormat()
		}
		desc.Attachments = append(desc.Attachments, AttachmentDesc{
			Format:        format,
			Samples:       t.samples,
			LoadOp:        load,
			StoreOp:       vk.AttachmentStoreOpStore,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   t.finalLayout(),
		})
		if t.isDepth() {
			desc.DepthRef = &AttachmentRef{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
		} else {
			desc.ColorRefs = append(desc.ColorRefs, AttachmentRef{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
		}
	}
	return desc
}

func (g *Graph) compileStage(s *GraphicsStage, views []ImageView) (*PhysicalStage, error) {
	if s.pipeline == nil {
		return nil, ErrNoPipeline
	}
	ps := &PhysicalStage{graph: g, stage: s}
	release := func() { ps.release(g.device) }

	desc := g.renderPassDesc(s)
	pass, err := g.device.CreateRenderPass(desc)
	if err != nil {
		return nil, err
	}
	ps.renderPass = pass

	extent := g.device.SwapchainExtent()
	for i := range views {
		attachments := make([]ImageView, len(s.writes))
		for slot, t := range s.writes {
			if t.usage == BackBuffer {
				attachments[slot] = views[i]
			} else {
				attachments[slot] = g.images[t].View()
			}
		}
		fb, err := g.device.CreateFramebuffer(FramebufferDesc{Pass: pass, Attachments: attachments, Extent: extent})
		if err != nil {
			release()
			return nil, err
		}
		ps.framebuffers = append(ps.framebuffers, fb)
	}

	layoutDesc := PipelineLayoutDesc{PushConstants: s.pushRanges}
	for _, d := range s.descriptors {
		layoutDesc.SetLayouts = append(layoutDesc.SetLayouts, d.layout)
	}
	if ps.layout, err = g.device.CreatePipelineLayout(layoutDesc); err != nil {
		release()
		return nil, err
	}

	samples := vk.SampleCount1Bit
	for _, t := range s.writes {
		if t.samples > samples {
			samples = t.samples
		}
	}
	tmpl := s.pipeline
	pd := PipelineDesc{
		Name:             tmpl.name,
		Pass:             pass,
		Layout:           ps.layout,
		Shaders:          tmpl.shaders,
		Topology:         tmpl.topology,
		PolygonMode:      tmpl.polygonMode,
		CullMode:         tmpl.cullMode,
		FrontFace:        tmpl.frontFace,
		LineWidth:        tmpl.lineWidth,
		DepthTest:        s.depthTest,
		DepthWrite:       s.depthWrite,
		DepthCompare:     tmpl.depthCompare,
		Samples:          samples,
		ColorAttachments: len(desc.ColorRefs),
		Blend:            tmpl.blend,
		WriteMask:        tmpl.writeMask,
		Extent:           extent,
	}
	for i, vb := range s.vertexBuffers() {
		pd.Bindings = append(pd.Bindings, VertexBinding{Binding: uint32(i), Stride: vb.stride})
		for _, a := range vb.attributes {
			a.Binding = uint32(i)
			pd.Attributes = append(pd.Attributes, a)
		}
	}
	if ps.pipeline, err = g.device.CreateGraphicsPipeline(pd); err != nil {
		release()
		return nil, err
	}

	if ps.commandBuffers, err = g.device.AllocateCommandBuffers(len(views)); err != nil {
		release()
		return nil, err
	}
	return ps, nil
}

// record records the command buffers of every stage for one image.
func (g *Graph) record(image uint32) error {
	extent := g.device.SwapchainExtent()
	for _, s := range g.order {
		ps := g.physical[s]
		cmd := ps.commandBuffers[image]
		if err := cmd.Reset(); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
		if err := cmd.Begin(); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
		clears := make([]ClearValue, len(s.writes))
		for i, t := range s.writes {
			if t.isDepth() {
				clears[i] = ClearValue{Depth: 1}
			} else {
				clears[i] = ClearValue{Color: s.clearColor}
			}
		}
		cmd.BeginRenderPass(ps.renderPass, ps.framebuffers[image], extent, clears)
		cmd.BindPipeline(ps.pipeline)
		var vbs []Buffer
		for _, vb := range s.vertexBuffers() {
			if buf, ok := g.buffers[vb]; ok {
				vbs = append(vbs, buf)
			}
		}
		if len(vbs) > 0 {
			cmd.BindVertexBuffers(0, vbs)
		}
		if ib := s.indexBuffer(); ib != nil {
			if buf, ok := g.buffers[ib]; ok {
				cmd.BindIndexBuffer(buf, ib.indexType)
			}
		}
		if len(s.descriptors) > 0 {
			sets := make([]DescriptorSet, len(s.descriptors))
			for i, d := range s.descriptors {
				sets[i] = d.set
			}
			cmd.BindDescriptorSets(ps.layout, 0, sets)
		}
		if s.onRecord != nil {
			s.onRecord(ps, cmd)
		}
		cmd.EndRenderPass()
		if err := cmd.End(); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
	}
	g.dirty[image] = false
	return nil
}

// applyUpdates runs the update callbacks and moves pending buffer data
// into physical buffers. It reports whether any data changed.
func (g *Graph) applyUpdates() (bool, error) {
	for _, t := range g.textures {
		if t.onUpdate != nil {
			t.onUpdate(t)
		}
	}
	for _, b := range g.bufferDecls {
		if b.onUpdate != nil {
			b.onUpdate(b)
		}
	}

	changed, reallocated := false, false
	for _, b := range g.bufferDecls {
		data, ok := b.take()
		if !ok {
			continue
		}
		changed = true
		buf := g.buffers[b]
		if buf != nil && buf.Size() >= len(data) {
			if err := buf.Upload(data); err != nil {
				return changed, fmt.Errorf("buffer %s: %w", b.name, err)
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		if buf != nil {
			if err := g.device.WaitIdle(); err != nil {
				return changed, err
			}
			buf.Release()
			delete(g.buffers, b)
		}
		if err := g.allocateBuffer(b); err != nil {
			return changed, err
		}
		reallocated = true
		g.logger.WithFields(logrus.Fields{
			"buffer": b.name,
			"size":   len(data),
		}).Debug("buffer reallocated")
	}
	if reallocated {
		if err := g.writeDescriptors(); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// Render records and submits one frame. A stale swapchain is recreated
// on the following call.
func (g *Graph) Render() error {
	if !g.compiled {
		return ErrNotCompiled
	}
	if g.resized.Load() {
		return g.recreate()
	}

	image, err := g.device.AcquireNextImage()
	if errors.Is(err, ErrOutOfDate) {
		g.resized.Store(true)
		return nil
	} else if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	changed, err := g.applyUpdates()
	if err != nil {
		return g.abandon(image, err)
	}
	if changed {
		for i := range g.dirty {
			g.dirty[i] = true
		}
	}
	if g.dirty[image] {
		if err := g.record(image); err != nil {
			return g.abandon(image, err)
		}
	}

	cmds := make([]CommandBuffer, len(g.order))
	for i, s := range g.order {
		cmds[i] = g.physical[s].commandBuffers[image]
	}
	if err := g.device.Submit(image, cmds); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	g.frame++
	if err := g.device.Present(image); errors.Is(err, ErrOutOfDate) {
		g.resized.Store(true)
	} else if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// abandon hands an acquired image back with an empty submission, so the
// acquire semaphore is waited on and the image is presented again.
func (g *Graph) abandon(image uint32, cause error) error {
	if err := g.device.Submit(image, nil); err != nil {
		return errors.Join(cause, fmt.Errorf("submit: %w", err))
	}
	if err := g.device.Present(image); errors.Is(err, ErrOutOfDate) {
		g.resized.Store(true)
	} else if err != nil {
		return errors.Join(cause, fmt.Errorf("present: %w", err))
	}
	return cause
}

func (g *Graph) recreate() error {
	if err := g.Reset(); err != nil {
		return err
	}
	if err := g.device.RecreateSwapchain(); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	g.resized.Store(false)
	if err := g.Compile(g.target); err != nil {
		return err
	}
	g.logger.WithField("extent", g.device.SwapchainExtent()).Info("swapchain recreated")
	return nil
}

// Reset waits for the device to idle and releases all physical state.
// Declarations are kept and the graph can be compiled again.
func (g *Graph) Reset() error {
	if err := g.device.WaitIdle(); err != nil {
		return err
	}
	g.releasePhysical()
	g.compiled = false
	return nil
}

func (g *Graph) releasePhysical() {
	for i := len(g.order) - 1; i >= 0; i-- {
		if ps, ok := g.physical[g.order[i]]; ok {
			ps.release(g.device)
		}
	}
	clear(g.physical)
	for _, img := range g.images {
		img.Release()
	}
	clear(g.images)
	for _, buf := range g.buffers {
		buf.Release()
	}
	clear(g.buffers)
	g.dirty = nil
}

// Destroy releases the physical state and the descriptor layouts.
// The graph can't be used afterwards.
func (g *Graph) Destroy() error {
	if err := g.Reset(); err != nil {
		return err
	}
	for _, d := range g.descriptors {
		d.layout.Release()
	}
	g.descriptors = nil
	return nil
}
