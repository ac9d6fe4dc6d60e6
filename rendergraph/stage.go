// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rendergraph

import (
	"github.com/devblok/koruvox/gfx"
	vk "github.com/devblok/vulkan"
)

// RecordFunc records the draw commands of a stage. The render pass is
// begun, and the pipeline, vertex, index and descriptor bindings are
// already in place when it is called.
type RecordFunc func(stage *PhysicalStage, cmd CommandBuffer)

// GraphicsStage is a declared graphics pass.
type GraphicsStage struct {
	name        string
	reads       []Resource
	writes      []*TextureResource
	clears      bool
	clearColor  [4]float32
	depthTest   bool
	depthWrite  bool
	buffers     []*BufferResource
	pipeline    *PipelineTemplate
	descriptors []*ResourceDescriptor
	pushRanges  []PushConstantRange
	onRecord    RecordFunc
}

// Name of the stage.
func (s *GraphicsStage) Name() string { return s.name }

// Reads lists the resources the stage depends on.
func (s *GraphicsStage) Reads() []Resource { return s.reads }

// Writes lists the textures the stage renders to.
func (s *GraphicsStage) Writes() []*TextureResource { return s.writes }

func (s *GraphicsStage) vertexBuffers() []*BufferResource {
	var vbs []*BufferResource
	for _, b := range s.buffers {
		if b.usage == VertexBuffer {
			vbs = append(vbs, b)
		}
	}
	return vbs
}

func (s *GraphicsStage) indexBuffer() *BufferResource {
	for _, b := range s.buffers {
		if b.usage == IndexBuffer {
			return b
		}
	}
	return nil
}

// StageBuilder configures a graphics stage while it is declared.
type StageBuilder struct {
	stage *GraphicsStage
}

// WritesTo adds a render target.
func (b *StageBuilder) WritesTo(t *TextureResource) *StageBuilder {
	b.stage.writes = append(b.stage.writes, t)
	return b
}

// ReadsFrom adds a dependency.
func (b *StageBuilder) ReadsFrom(r Resource) *StageBuilder {
	b.stage.reads = append(b.stage.reads, r)
	return b
}

// SetDepthOptions enables depth testing and writing.
func (b *StageBuilder) SetDepthOptions(test, write bool) *StageBuilder {
	b.stage.depthTest = test
	b.stage.depthWrite = write
	return b
}

// SetClearsScreen makes the stage clear its targets on load.
func (b *StageBuilder) SetClearsScreen(clears bool) *StageBuilder {
	b.stage.clears = clears
	return b
}

// SetClearColor sets the color used when clearing color targets.
func (b *StageBuilder) SetClearColor(color [4]float32) *StageBuilder {
	b.stage.clearColor = color
	return b
}

// BindBuffer binds a vertex or index buffer. The buffer is also read by the stage.
func (b *StageBuilder) BindBuffer(buf *BufferResource) *StageBuilder {
	b.stage.buffers = append(b.stage.buffers, buf)
	return b.ReadsFrom(buf)
}

// BindPipeline sets the pipeline template the stage draws with.
func (b *StageBuilder) BindPipeline(p *PipelineTemplate) *StageBuilder {
	b.stage.pipeline = p
	return b
}

// AddDescriptorLayout adds the descriptor's layout to the stage's pipeline
// layout and binds its set before recording.
func (b *StageBuilder) AddDescriptorLayout(d *ResourceDescriptor) *StageBuilder {
	b.stage.descriptors = append(b.stage.descriptors, d)
	return b
}

// AddPushConstantRange adds a push constant range to the pipeline layout.
func (b *StageBuilder) AddPushConstantRange(r PushConstantRange) *StageBuilder {
	b.stage.pushRanges = append(b.stage.pushRanges, r)
	return b
}

// SetOnRecord sets the closure that records the stage's draw commands.
func (b *StageBuilder) SetOnRecord(fn RecordFunc) *StageBuilder {
	b.stage.onRecord = fn
	return b
}

// PhysicalStage is a stage materialized for one compile epoch.
type PhysicalStage struct {
	graph          *Graph
	stage          *GraphicsStage
	renderPass     RenderPass
	framebuffers   []Framebuffer
	layout         PipelineLayout
	pipeline       Pipeline
	commandBuffers []CommandBuffer
}

// Stage returns the declaration.
func (p *PhysicalStage) Stage() *GraphicsStage { return p.stage }

// RenderPass of the stage.
func (p *PhysicalStage) RenderPass() RenderPass { return p.renderPass }

// PipelineLayout of the stage, for push constants.
func (p *PhysicalStage) PipelineLayout() PipelineLayout { return p.layout }

// Pipeline of the stage.
func (p *PhysicalStage) Pipeline() Pipeline { return p.pipeline }

// Extent of the render area.
func (p *PhysicalStage) Extent() gfx.Extent2D { return p.graph.device.SwapchainExtent() }

// Buffer returns the physical buffer of b, nil until it has data.
func (p *PhysicalStage) Buffer(b *BufferResource) Buffer { return p.graph.buffers[b] }

func (p *PhysicalStage) release(dev Device) {
	if len(p.commandBuffers) > 0 {
		dev.FreeCommandBuffers(p.commandBuffers)
		p.commandBuffers = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	for _, fb := range p.framebuffers {
		fb.Release()
	}
	p.framebuffers = nil
	if p.renderPass != nil {
		p.renderPass.Release()
	}
}

// PipelineTemplate is a declared graphics pipeline, built per stage at compile.
type PipelineTemplate struct {
	name         string
	shaders      []ShaderStage
	topology     vk.PrimitiveTopology
	polygonMode  vk.PolygonMode
	cullMode     vk.CullModeFlags
	frontFace    vk.FrontFace
	lineWidth    float32
	depthCompare vk.CompareOp
	blend        bool
	writeMask    vk.ColorComponentFlags
}

// Name of the pipeline.
func (p *PipelineTemplate) Name() string { return p.name }

func newPipelineTemplate(name string) *PipelineTemplate {
	return &PipelineTemplate{
		name:         name,
		topology:     vk.PrimitiveTopologyTriangleList,
		polygonMode:  vk.PolygonModeFill,
		cullMode:     vk.CullModeFlags(vk.CullModeBackBit),
		frontFace:    vk.FrontFaceClockwise,
		lineWidth:    1,
		depthCompare: vk.CompareOpLessOrEqual,
		writeMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
}

// PipelineBuilder overrides the pipeline defaults.
type PipelineBuilder struct {
	p *PipelineTemplate
}

// AddShader adds SPIR-V code for a shader stage with the "main" entry point.
func (b *PipelineBuilder) AddShader(stage vk.ShaderStageFlagBits, code []uint32) *PipelineBuilder {
	b.p.shaders = append(b.p.shaders, ShaderStage{Stage: stage, Code: code, Entry: "main"})
	return b
}

// SetTopology sets the primitive topology.
func (b *PipelineBuilder) SetTopology(t vk.PrimitiveTopology) *PipelineBuilder {
	b.p.topology = t
	return b
}

// SetPolygonMode sets fill, line or point rasterization.
func (b *PipelineBuilder) SetPolygonMode(m vk.PolygonMode) *PipelineBuilder {
	b.p.polygonMode = m
	return b
}

// SetCulling sets the cull mode and the front face winding.
func (b *PipelineBuilder) SetCulling(mode vk.CullModeFlags, front vk.FrontFace) *PipelineBuilder {
	b.p.cullMode = mode
	b.p.frontFace = front
	return b
}

// SetLineWidth sets the rasterized line width.
func (b *PipelineBuilder) SetLineWidth(w float32) *PipelineBuilder {
	b.p.lineWidth = w
	return b
}

// SetDepthCompare sets the depth compare operation.
func (b *PipelineBuilder) SetDepthCompare(op vk.CompareOp) *PipelineBuilder {
	b.p.depthCompare = op
	return b
}

// SetBlending enables alpha blending on the color attachment.
func (b *PipelineBuilder) SetBlending(enable bool) *PipelineBuilder {
	b.p.blend = enable
	return b
}
