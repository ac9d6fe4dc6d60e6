// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rendergraph

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// Resource is a named declaration in a graph.
type Resource interface {
	Name() string
	resource()
}

// TextureUsage determines how a texture is used and laid out.
type TextureUsage int

const (
	// BackBuffer is the swapchain image; it has no physical image of its own.
	BackBuffer TextureUsage = iota

	// DepthStencilBuffer is a depth attachment.
	DepthStencilBuffer

	// ColorAttachment is an offscreen color target.
	ColorAttachment

	// SampledTexture is read by shaders.
	SampledTexture
)

func (u TextureUsage) String() string {
	switch u {
	case BackBuffer:
		return "back_buffer"
	case DepthStencilBuffer:
		return "depth_stencil"
	case ColorAttachment:
		return "color_attachment"
	case SampledTexture:
		return "sampled"
	}
	return "unknown"
}

// TextureResource declares an image.
type TextureResource struct {
	name     string
	usage    TextureUsage
	format   vk.Format
	width    uint32
	height   uint32
	samples  vk.SampleCountFlagBits
	onUpdate func(*TextureResource)
}

func (*TextureResource) resource() {}

// Name of the texture.
func (t *TextureResource) Name() string { return t.name }

// Usage of the texture.
func (t *TextureResource) Usage() TextureUsage { return t.usage }

// Format of the texture.
func (t *TextureResource) Format() vk.Format { return t.format }

// Samples per pixel.
func (t *TextureResource) Samples() vk.SampleCountFlagBits { return t.samples }

// Size returns the declared size, zero meaning swapchain sized.
func (t *TextureResource) Size() (uint32, uint32) { return t.width, t.height }

func (t *TextureResource) isDepth() bool { return t.usage == DepthStencilBuffer }

func (t *TextureResource) imageUsage() vk.ImageUsageFlags {
	switch t.usage {
	case DepthStencilBuffer:
		return vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	case ColorAttachment:
		return vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageSampledBit)
	case SampledTexture:
		return vk.ImageUsageFlags(vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit)
	}
	return vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
}

func (t *TextureResource) aspect() vk.ImageAspectFlags {
	if t.isDepth() {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

func (t *TextureResource) finalLayout() vk.ImageLayout {
	switch t.usage {
	case BackBuffer:
		return vk.ImageLayoutPresentSrc
	case DepthStencilBuffer:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	}
	return vk.ImageLayoutColorAttachmentOptimal
}

// BufferUsage determines how a buffer is bound.
type BufferUsage int

const (
	VertexBuffer BufferUsage = iota
	IndexBuffer
	UniformBuffer
	StorageBuffer
)

func (u BufferUsage) String() string {
	switch u {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	case UniformBuffer:
		return "uniform"
	case StorageBuffer:
		return "storage"
	}
	return "unknown"
}

func (u BufferUsage) bufferUsage() vk.BufferUsageFlags {
	switch u {
	case IndexBuffer:
		return vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	case UniformBuffer:
		return vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	case StorageBuffer:
		return vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	return vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
}

// BufferResource declares a buffer backed by a CPU-side blob.
type BufferResource struct {
	name       string
	usage      BufferUsage
	stride     uint32
	attributes []VertexAttribute
	indexType  vk.IndexType
	onUpdate   func(*BufferResource)

	data       []byte
	pending    []byte
	hasPending bool
}

func (*BufferResource) resource() {}

// Name of the buffer.
func (b *BufferResource) Name() string { return b.name }

// Usage of the buffer.
func (b *BufferResource) Usage() BufferUsage { return b.usage }

// Stride is the size of one element in bytes.
func (b *BufferResource) Stride() uint32 { return b.stride }

// IndexType is the element type of an index buffer.
func (b *BufferResource) IndexType() vk.IndexType { return b.indexType }

// Attributes of one vertex of a vertex buffer.
func (b *BufferResource) Attributes() []VertexAttribute { return b.attributes }

// SetVertexLayout sets the stride and vertex attributes.
func (b *BufferResource) SetVertexLayout(stride uint32, attributes []VertexAttribute) {
	b.stride = stride
	b.attributes = append([]VertexAttribute(nil), attributes...)
}

// Len is the size of the current data in bytes.
func (b *BufferResource) Len() int { return len(b.data) }

// Count is the number of elements in the current data.
func (b *BufferResource) Count() uint32 {
	if b.stride == 0 {
		return 0
	}
	return uint32(len(b.data)) / b.stride
}

// RequestUpdate schedules data to become the buffer's contents before
// the next frame is submitted. The data is copied.
func (b *BufferResource) RequestUpdate(data []byte) error {
	if b.hasPending {
		return ErrUpdatePending
	}
	b.pending = append(b.pending[:0], data...)
	b.hasPending = true
	return nil
}

// Pending reports whether an update waits for the next frame.
func (b *BufferResource) Pending() bool { return b.hasPending }

// take moves pending data into the current data.
func (b *BufferResource) take() ([]byte, bool) {
	if !b.hasPending {
		return nil, false
	}
	b.data, b.pending = b.pending, b.data
	b.hasPending = false
	return b.data, true
}

// Upload requests an update with the raw bytes of data. The stride is
// set to the element size, and index buffers of 16 or 32 bit integers
// get a matching index type.
func Upload[T any](b *BufferResource, data []T) error {
	var zero T
	size := unsafe.Sizeof(zero)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))*size)
	if err := b.RequestUpdate(raw); err != nil {
		return err
	}
	b.stride = uint32(size)
	if b.usage == IndexBuffer {
		switch size {
		case 2:
			b.indexType = vk.IndexTypeUint16
		case 4:
			b.indexType = vk.IndexTypeUint32
		}
	}
	return nil
}
