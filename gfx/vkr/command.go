// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	"github.com/devblok/koruvox/gfx"
	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
)

// CommandBuffer records into a primary vulkan command buffer.
type CommandBuffer struct {
	handle vk.CommandBuffer
}

var _ rendergraph.CommandBuffer = (*CommandBuffer)(nil)

// Begin implements rendergraph.CommandBuffer
func (c *CommandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	return check("vk.BeginCommandBuffer()", vk.BeginCommandBuffer(c.handle, &cbbi))
}

// BeginRenderPass implements rendergraph.CommandBuffer. Viewport and
// scissor cover the whole area.
func (c *CommandBuffer) BeginRenderPass(pass rendergraph.RenderPass, fb rendergraph.Framebuffer, area gfx.Extent2D, clears []rendergraph.ClearValue) {
	clearValues := make([]vk.ClearValue, len(clears))
	for i, cv := range clears {
		if cv.Depth != 0 || cv.Stencil != 0 {
			clearValues[i].SetDepthStencil(cv.Depth, cv.Stencil)
		} else {
			clearValues[i].SetColor(cv.Color[:])
		}
	}

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass.(*renderPass).handle,
		Framebuffer: fb.(*framebuffer).handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.handle, &rpbi, vk.SubpassContentsInline)

	vk.CmdSetViewport(c.handle, 0, 1, []vk.Viewport{{
		Width:    float32(area.Width),
		Height:   float32(area.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(c.handle, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
	}})
}

// BindPipeline implements rendergraph.CommandBuffer
func (c *CommandBuffer) BindPipeline(p rendergraph.Pipeline) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

// BindVertexBuffers implements rendergraph.CommandBuffer
func (c *CommandBuffer) BindVertexBuffers(first uint32, buffers []rendergraph.Buffer) {
	handles := make([]vk.Buffer, len(buffers))
	offsets := make([]vk.DeviceSize, len(buffers))
	for i, b := range buffers {
		handles[i] = b.(*Buffer).Get()
	}
	vk.CmdBindVertexBuffers(c.handle, first, uint32(len(handles)), handles, offsets)
}

// BindIndexBuffer implements rendergraph.CommandBuffer
func (c *CommandBuffer) BindIndexBuffer(buffer rendergraph.Buffer, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(c.handle, buffer.(*Buffer).Get(), 0, indexType)
}

// BindDescriptorSets implements rendergraph.CommandBuffer
func (c *CommandBuffer) BindDescriptorSets(layout rendergraph.PipelineLayout, first uint32, sets []rendergraph.DescriptorSet) {
	handles := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		handles[i] = s.(vk.DescriptorSet)
	}
	vk.CmdBindDescriptorSets(c.handle, vk.PipelineBindPointGraphics, layout.(*pipelineLayout).handle,
		first, uint32(len(handles)), handles, 0, nil)
}

// PushConstants implements rendergraph.CommandBuffer
func (c *CommandBuffer) PushConstants(layout rendergraph.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.handle, layout.(*pipelineLayout).handle, stages, offset, uint32(len(data)), unsafePointer(data))
}

// Draw implements rendergraph.CommandBuffer
func (c *CommandBuffer) Draw(vertices, instances, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.handle, vertices, instances, firstVertex, firstInstance)
}

// DrawIndexed implements rendergraph.CommandBuffer
func (c *CommandBuffer) DrawIndexed(indices, instances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(c.handle, indices, instances, firstIndex, vertexOffset, firstInstance)
}

// EndRenderPass implements rendergraph.CommandBuffer
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
}

// End implements rendergraph.CommandBuffer
func (c *CommandBuffer) End() error {
	return check("vk.EndCommandBuffer()", vk.EndCommandBuffer(c.handle))
}

// Reset implements rendergraph.CommandBuffer
func (c *CommandBuffer) Reset() error {
	return check("vk.ResetCommandBuffer()", vk.ResetCommandBuffer(c.handle, 0))
}

// AllocateCommandBuffers implements rendergraph.Device
func (d *Device) AllocateCommandBuffers(count int) ([]rendergraph.CommandBuffer, error) {
	if count == 0 {
		return nil, nil
	}
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	handles := make([]vk.CommandBuffer, count)
	if err := check("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(d.device, &cbai, handles)); err != nil {
		return nil, err
	}
	cmds := make([]rendergraph.CommandBuffer, 0, count)
	for _, h := range handles {
		handle := h
		cb, err := d.commands.Allocate(func(c *CommandBuffer) { c.handle = handle })
		if err != nil {
			d.FreeCommandBuffers(cmds)
			vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(handles)-len(cmds)), handles[len(cmds):])
			return nil, fmt.Errorf("command buffers: %w", err)
		}
		cmds = append(cmds, cb)
	}
	return cmds, nil
}

// FreeCommandBuffers implements rendergraph.Device
func (d *Device) FreeCommandBuffers(cmds []rendergraph.CommandBuffer) {
	handles := commandHandles(cmds)
	if len(handles) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(handles)), handles)
	for _, c := range cmds {
		if cb, ok := c.(*CommandBuffer); ok {
			if err := d.commands.Deallocate(cb); err != nil {
				d.logger.WithError(err).Warn("command buffer not from this device")
			}
		}
	}
}

// Submit implements rendergraph.Device
func (d *Device) Submit(imageIndex uint32, cmds []rendergraph.CommandBuffer) error {
	handles := commandHandles(cmds)
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.imageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   uint32(len(handles)),
		PCommandBuffers:      handles,
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{d.renderFinished},
	}}
	if err := check("vk.QueueSubmit()", vk.QueueSubmit(d.graphicsQueue, 1, submit, vk.NullFence)); err != nil {
		return err
	}
	return check("vk.QueueWaitIdle()", vk.QueueWaitIdle(d.graphicsQueue))
}

func commandHandles(cmds []rendergraph.CommandBuffer) []vk.CommandBuffer {
	handles := make([]vk.CommandBuffer, 0, len(cmds))
	for _, c := range cmds {
		if cb, ok := c.(*CommandBuffer); ok {
			handles = append(handles, cb.handle)
		}
	}
	return handles
}
