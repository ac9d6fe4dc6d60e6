// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rendergraph

import (
	"errors"

	"github.com/devblok/koruvox/gfx"
	vk "github.com/devblok/vulkan"
)

// ErrOutOfDate is returned by a Device when the swapchain
// no longer matches the surface it presents to.
var ErrOutOfDate = errors.New("swapchain out of date")

// ImageView is an opaque device view of an image.
type ImageView interface{}

// DescriptorSet is an opaque device descriptor set.
type DescriptorSet interface{}

// Image is a device image together with its default view.
type Image interface {
	gfx.Releasable
	View() ImageView
}

// Buffer is a device buffer the host can write to.
type Buffer interface {
	gfx.Releasable

	// Size is the allocated size in bytes.
	Size() int

	// Upload copies data to the start of the buffer.
	Upload(data []byte) error
}

// RenderPass is a compiled device render pass.
type RenderPass interface{ gfx.Releasable }

// Framebuffer binds image views to a render pass.
type Framebuffer interface{ gfx.Releasable }

// DescriptorSetLayout describes the bindings of descriptor sets.
type DescriptorSetLayout interface{ gfx.Releasable }

// PipelineLayout is the layout of descriptor sets and push constants of a pipeline.
type PipelineLayout interface{ gfx.Releasable }

// Pipeline is a compiled graphics pipeline.
type Pipeline interface{ gfx.Releasable }

// ImageDesc describes an image to create.
type ImageDesc struct {
	Name    string
	Format  vk.Format
	Extent  gfx.Extent2D
	Samples vk.SampleCountFlagBits
	Usage   vk.ImageUsageFlags
	Aspect  vk.ImageAspectFlags
	Tiling  vk.ImageTiling
}

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Name  string
	Size  int
	Usage vk.BufferUsageFlags
}

// AttachmentDesc describes one attachment of a render pass.
type AttachmentDesc struct {
	Format        vk.Format
	Samples       vk.SampleCountFlagBits
	LoadOp        vk.AttachmentLoadOp
	StoreOp       vk.AttachmentStoreOp
	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout
}

// AttachmentRef references an attachment from the subpass.
type AttachmentRef struct {
	Attachment uint32
	Layout     vk.ImageLayout
}

// SubpassDependency orders the subpass against outside work.
type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  vk.PipelineStageFlags
	DstStageMask  vk.PipelineStageFlags
	SrcAccessMask vk.AccessFlags
	DstAccessMask vk.AccessFlags
}

// RenderPassDesc describes a single subpass render pass.
type RenderPassDesc struct {
	Name        string
	Attachments []AttachmentDesc
	ColorRefs   []AttachmentRef
	DepthRef    *AttachmentRef
	Dependency  SubpassDependency
}

// FramebufferDesc describes a framebuffer to create.
type FramebufferDesc struct {
	Pass        RenderPass
	Attachments []ImageView
	Extent      gfx.Extent2D
}

// DescriptorBinding is one binding slot of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    vk.DescriptorType
	Count   uint32
	Stages  vk.ShaderStageFlags
}

// DescriptorWrite points a binding slot at a physical resource.
// Exactly one of Buffer and Image is set.
type DescriptorWrite struct {
	Binding uint32
	Type    vk.DescriptorType
	Buffer  Buffer
	Image   ImageView
}

// PushConstantRange is a range of push constants visible to shader stages.
type PushConstantRange struct {
	Stages vk.ShaderStageFlags
	Offset uint32
	Size   uint32
}

// PipelineLayoutDesc describes a pipeline layout.
type PipelineLayoutDesc struct {
	SetLayouts    []DescriptorSetLayout
	PushConstants []PushConstantRange
}

// ShaderStage is SPIR-V code for one shader stage.
type ShaderStage struct {
	Stage vk.ShaderStageFlagBits
	Code  []uint32
	Entry string
}

// VertexBinding describes one bound vertex buffer.
type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

// VertexAttribute describes one attribute inside a vertex.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   vk.Format
	Offset   uint32
}

// PipelineDesc is the full fixed-function and shader state of a graphics pipeline.
type PipelineDesc struct {
	Name             string
	Pass             RenderPass
	Layout           PipelineLayout
	Shaders          []ShaderStage
	Bindings         []VertexBinding
	Attributes       []VertexAttribute
	Topology         vk.PrimitiveTopology
	PolygonMode      vk.PolygonMode
	CullMode         vk.CullModeFlags
	FrontFace        vk.FrontFace
	LineWidth        float32
	DepthTest        bool
	DepthWrite       bool
	DepthCompare     vk.CompareOp
	Samples          vk.SampleCountFlagBits
	ColorAttachments int
	Blend            bool
	WriteMask        vk.ColorComponentFlags
	Extent           gfx.Extent2D
}

// ClearValue is the clear color or depth of one attachment.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// CommandBuffer records device commands.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, area gfx.Extent2D, clears []ClearValue)
	BindPipeline(p Pipeline)
	BindVertexBuffers(first uint32, buffers []Buffer)
	BindIndexBuffer(buffer Buffer, indexType vk.IndexType)
	BindDescriptorSets(layout PipelineLayout, first uint32, sets []DescriptorSet)
	PushConstants(layout PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte)
	Draw(vertices, instances, firstVertex, firstInstance uint32)
	DrawIndexed(indices, instances, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	EndRenderPass()
	End() error
	Reset() error
}

// Device is everything the graph needs from the GPU.
type Device interface {
	SwapchainExtent() gfx.Extent2D
	SwapchainFormat() vk.Format
	SwapchainImageViews() []ImageView

	CreateImage(desc ImageDesc) (Image, error)
	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreateRenderPass(desc RenderPassDesc) (RenderPass, error)
	CreateFramebuffer(desc FramebufferDesc) (Framebuffer, error)
	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	AllocateDescriptorSet(layout DescriptorSetLayout) (DescriptorSet, error)
	UpdateDescriptorSet(set DescriptorSet, writes []DescriptorWrite) error
	CreatePipelineLayout(desc PipelineLayoutDesc) (PipelineLayout, error)

	// CreateGraphicsPipeline builds through the device's pipeline cache,
	// which outlives swapchain recreation.
	CreateGraphicsPipeline(desc PipelineDesc) (Pipeline, error)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(cmds []CommandBuffer)

	// AcquireNextImage blocks until a swapchain image is available.
	AcquireNextImage() (uint32, error)

	// Submit executes cmds in order, waiting for the acquire semaphore of
	// imageIndex at the color attachment output stage, then waits for the
	// queue to idle.
	Submit(imageIndex uint32, cmds []CommandBuffer) error
	Present(imageIndex uint32) error

	WaitIdle() error
	RecreateSwapchain() error
}
