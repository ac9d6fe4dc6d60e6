// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
)

// ErrForeignHandle is returned when a handle created by another
// device implementation is passed in.
var ErrForeignHandle = errors.New("handle was not created by this device")

type renderPass struct {
	device vk.Device
	handle vk.RenderPass
}

func (r *renderPass) Release() { vk.DestroyRenderPass(r.device, r.handle, nil) }

type framebuffer struct {
	device vk.Device
	handle vk.Framebuffer
}

func (f *framebuffer) Release() { vk.DestroyFramebuffer(f.device, f.handle, nil) }

type descriptorSetLayout struct {
	device vk.Device
	handle vk.DescriptorSetLayout
}

func (l *descriptorSetLayout) Release() { vk.DestroyDescriptorSetLayout(l.device, l.handle, nil) }

type pipelineLayout struct {
	device vk.Device
	handle vk.PipelineLayout
}

func (l *pipelineLayout) Release() { vk.DestroyPipelineLayout(l.device, l.handle, nil) }

type pipeline struct {
	device vk.Device
	handle vk.Pipeline
}

func (p *pipeline) Release() { vk.DestroyPipeline(p.device, p.handle, nil) }

// CreateRenderPass implements rendergraph.Device
func (d *Device) CreateRenderPass(desc rendergraph.RenderPassDesc) (rendergraph.RenderPass, error) {
	attachments := make([]vk.AttachmentDescription, len(desc.Attachments))
	for i, a := range desc.Attachments {
		attachments[i] = vk.AttachmentDescription{
			Format:         a.Format,
			Samples:        a.Samples,
			LoadOp:         a.LoadOp,
			StoreOp:        a.StoreOp,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  a.InitialLayout,
			FinalLayout:    a.FinalLayout,
		}
	}

	colorRefs := make([]vk.AttachmentReference, len(desc.ColorRefs))
	for i, r := range desc.ColorRefs {
		colorRefs[i] = vk.AttachmentReference{Attachment: r.Attachment, Layout: r.Layout}
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if desc.DepthRef != nil {
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: desc.DepthRef.Attachment,
			Layout:     desc.DepthRef.Layout,
		}
	}

	dep := desc.Dependency
	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    dep.SrcSubpass,
			DstSubpass:    dep.DstSubpass,
			SrcStageMask:  dep.SrcStageMask,
			DstStageMask:  dep.DstStageMask,
			SrcAccessMask: dep.SrcAccessMask,
			DstAccessMask: dep.DstAccessMask,
		}},
	}

	var handle vk.RenderPass
	if err := check("vk.CreateRenderPass()", vk.CreateRenderPass(d.device, &rpci, nil, &handle)); err != nil {
		return nil, fmt.Errorf("render pass %s: %w", desc.Name, err)
	}
	return &renderPass{device: d.device, handle: handle}, nil
}

// CreateFramebuffer implements rendergraph.Device
func (d *Device) CreateFramebuffer(desc rendergraph.FramebufferDesc) (rendergraph.Framebuffer, error) {
	pass, ok := desc.Pass.(*renderPass)
	if !ok {
		return nil, ErrForeignHandle
	}
	views := make([]vk.ImageView, len(desc.Attachments))
	for i, a := range desc.Attachments {
		view, ok := a.(vk.ImageView)
		if !ok {
			return nil, ErrForeignHandle
		}
		views[i] = view
	}

	fbci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           desc.Extent.Width,
		Height:          desc.Extent.Height,
		Layers:          1,
	}
	var handle vk.Framebuffer
	if err := check("vk.CreateFramebuffer()", vk.CreateFramebuffer(d.device, &fbci, nil, &handle)); err != nil {
		return nil, err
	}
	return &framebuffer{device: d.device, handle: handle}, nil
}

// CreateDescriptorSetLayout implements rendergraph.Device
func (d *Device) CreateDescriptorSetLayout(bindings []rendergraph.DescriptorBinding) (rendergraph.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		count := b.Count
		if count == 0 {
			count = 1
		}
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: count,
			StageFlags:      b.Stages,
		}
	}
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}
	var handle vk.DescriptorSetLayout
	if err := check("vk.CreateDescriptorSetLayout()", vk.CreateDescriptorSetLayout(d.device, &dslci, nil, &handle)); err != nil {
		return nil, err
	}
	return &descriptorSetLayout{device: d.device, handle: handle}, nil
}

// AllocateDescriptorSet implements rendergraph.Device. Sets live as long
// as the descriptor pool.
func (d *Device) AllocateDescriptorSet(layout rendergraph.DescriptorSetLayout) (rendergraph.DescriptorSet, error) {
	l, ok := layout.(*descriptorSetLayout)
	if !ok {
		return nil, ErrForeignHandle
	}
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l.handle},
	}
	var set vk.DescriptorSet
	if err := check("vk.AllocateDescriptorSets()", vk.AllocateDescriptorSets(d.device, &dsai, &set)); err != nil {
		return nil, err
	}
	return set, nil
}

// UpdateDescriptorSet implements rendergraph.Device
func (d *Device) UpdateDescriptorSet(set rendergraph.DescriptorSet, writes []rendergraph.DescriptorWrite) error {
	dst, ok := set.(vk.DescriptorSet)
	if !ok {
		return ErrForeignHandle
	}

	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          dst,
			DstBinding:      w.Binding,
			DescriptorCount: 1,
			DescriptorType:  w.Type,
		}
		switch {
		case w.Buffer != nil:
			buf, ok := w.Buffer.(*Buffer)
			if !ok {
				return ErrForeignHandle
			}
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: buf.Get(),
				Offset: 0,
				Range:  vk.DeviceSize(buf.Size()),
			}}
		case w.Image != nil:
			view, ok := w.Image.(vk.ImageView)
			if !ok {
				return ErrForeignHandle
			}
			write.PImageInfo = []vk.DescriptorImageInfo{{
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
				ImageView:   view,
				Sampler:     d.sampler,
			}}
		default:
			continue
		}
		vkWrites = append(vkWrites, write)
	}
	if len(vkWrites) > 0 {
		vk.UpdateDescriptorSets(d.device, uint32(len(vkWrites)), vkWrites, 0, nil)
	}
	return nil
}

// CreatePipelineLayout implements rendergraph.Device
func (d *Device) CreatePipelineLayout(desc rendergraph.PipelineLayoutDesc) (rendergraph.PipelineLayout, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(desc.SetLayouts))
	for i, l := range desc.SetLayouts {
		layout, ok := l.(*descriptorSetLayout)
		if !ok {
			return nil, ErrForeignHandle
		}
		setLayouts[i] = layout.handle
	}
	ranges := make([]vk.PushConstantRange, len(desc.PushConstants))
	for i, r := range desc.PushConstants {
		ranges[i] = vk.PushConstantRange{StageFlags: r.Stages, Offset: r.Offset, Size: r.Size}
	}

	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}
	var handle vk.PipelineLayout
	if err := check("vk.CreatePipelineLayout()", vk.CreatePipelineLayout(d.device, &plci, nil, &handle)); err != nil {
		return nil, err
	}
	return &pipelineLayout{device: d.device, handle: handle}, nil
}

func (d *Device) createShaderModule(code []uint32) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if err := check("vk.CreateShaderModule()", vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

// CreateGraphicsPipeline implements rendergraph.Device
func (d *Device) CreateGraphicsPipeline(desc rendergraph.PipelineDesc) (rendergraph.Pipeline, error) {
	pass, ok := desc.Pass.(*renderPass)
	if !ok {
		return nil, ErrForeignHandle
	}
	layout, ok := desc.Layout.(*pipelineLayout)
	if !ok {
		return nil, ErrForeignHandle
	}

	modules := make([]vk.ShaderModule, 0, len(desc.Shaders))
	defer func() {
		for _, m := range modules {
			vk.DestroyShaderModule(d.device, m, nil)
		}
	}()
	stages := make([]vk.PipelineShaderStageCreateInfo, len(desc.Shaders))
	for i, shader := range desc.Shaders {
		module, err := d.createShaderModule(shader.Code)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", desc.Name, err)
		}
		modules = append(modules, module)
		entry := shader.Entry
		if entry == "" {
			entry = "main"
		}
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  shader.Stage,
			Module: module,
			PName:  safeString(entry),
		}
	}

	bindings := make([]vk.VertexInputBindingDescription, len(desc.Bindings))
	for i, b := range desc.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vk.VertexInputRateVertex,
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(desc.Attributes))
	for i, a := range desc.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}

	blend := make([]vk.PipelineColorBlendAttachmentState, desc.ColorAttachments)
	for i := range blend {
		blend[i] = vk.PipelineColorBlendAttachmentState{
			ColorWriteMask: desc.WriteMask,
			BlendEnable:    bool32(desc.Blend),
		}
		if desc.Blend {
			blend[i].SrcColorBlendFactor = vk.BlendFactorSrcAlpha
			blend[i].DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
			blend[i].ColorBlendOp = vk.BlendOpAdd
			blend[i].SrcAlphaBlendFactor = vk.BlendFactorOne
			blend[i].DstAlphaBlendFactor = vk.BlendFactorZero
			blend[i].AlphaBlendOp = vk.BlendOpAdd
		}
	}

	stencil := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: desc.Topology,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: desc.PolygonMode,
			CullMode:    desc.CullMode,
			FrontFace:   desc.FrontFace,
			LineWidth:   desc.LineWidth,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       bool32(desc.DepthTest),
			DepthWriteEnable:      bool32(desc.DepthWrite),
			DepthCompareOp:        desc.DepthCompare,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back:                  stencil,
			Front:                 stencil,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: desc.Samples,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: uint32(len(blend)),
			PAttachments:    blend,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:     layout.handle,
		RenderPass: pass.handle,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := check("vk.CreateGraphicsPipelines()", vk.CreateGraphicsPipelines(d.device, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", desc.Name, err)
	}
	return &pipeline{device: d.device, handle: pipelines[0]}, nil
}
